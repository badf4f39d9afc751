package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/canteen-api/internal/items"
	"github.com/nulzo/canteen-api/internal/server/validator"
	"github.com/nulzo/canteen-api/pkg/api"
)

type ItemsHandler struct {
	service   items.Service
	validator *validator.Validator
}

func NewItemsHandler(service items.Service, v *validator.Validator) *ItemsHandler {
	return &ItemsHandler{
		service:   service,
		validator: v,
	}
}

// POST /api/items/add-item
func (h *ItemsHandler) Add(c *gin.Context) {
	var req api.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(h.validator.ParseError(err)))
		return
	}

	item, err := h.service.Add(c.Request.Context(), req.Name, req.Description, req.ServingDay)
	if err != nil {
		fail(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, api.ItemResponse{Message: "Item added successfully", Item: item})
}

// List returns the menu, optionally for one serving day.
//
// GET /api/items?serving_day=monday
func (h *ItemsHandler) List(c *gin.Context) {
	var q api.ItemsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(api.ValidationError(h.validator.ParseError(err)))
		return
	}

	list, err := h.service.List(c.Request.Context(), q.ServingDay)
	if err != nil {
		fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, api.ListResponse{Object: "list", Data: list})
}
