package v1

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/canteen-api/internal/orders"
	"github.com/nulzo/canteen-api/internal/server/validator"
	"github.com/nulzo/canteen-api/pkg/api"
)

const orderNotFound = "Order not found"

type OrdersHandler struct {
	service   orders.Service
	validator *validator.Validator
}

func NewOrdersHandler(service orders.Service, v *validator.Validator) *OrdersHandler {
	return &OrdersHandler{
		service:   service,
		validator: v,
	}
}

// Create returns today's order for the employee, creating an empty one.
//
// POST /api/day-orders
func (h *OrdersHandler) Create(c *gin.Context) {
	var req api.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(h.validator.ParseError(err)))
		return
	}

	order, err := h.service.CreateOrGet(c.Request.Context(), req.EmployeeID)
	if err != nil {
		fail(c, err, "Employee not found")
		return
	}
	c.JSON(http.StatusOK, order)
}

// ByToken resolves an employee token to their latest order id.
//
// POST /api/day-orders/by-token
func (h *OrdersHandler) ByToken(c *gin.Context) {
	var req api.OrderByTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(h.validator.ParseError(err)))
		return
	}

	id, err := h.service.OrderIDByToken(c.Request.Context(), req.Token)
	if err != nil {
		fail(c, err, orderNotFound)
		return
	}
	c.JSON(http.StatusOK, api.OrderIDResponse{OrderID: id})
}

// GET /api/day-orders/:id
func (h *OrdersHandler) Get(c *gin.Context) {
	order, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err, orderNotFound)
		return
	}
	c.JSON(http.StatusOK, order)
}

// GET /api/day-orders/date/:date
func (h *OrdersHandler) ByDate(c *gin.Context) {
	list, err := h.service.ListByDate(c.Request.Context(), c.Param("date"))
	if err != nil {
		fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, list)
}

// GET /api/day-orders/employee/:emp_id
func (h *OrdersHandler) ByEmployee(c *gin.Context) {
	list, err := h.service.ListByEmployee(c.Request.Context(), c.Param("emp_id"))
	if err != nil {
		fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, list)
}

// Toggle flips one flag and keeps the daily counters in step.
//
// PATCH /api/day-orders/:id/toggle
func (h *OrdersHandler) Toggle(c *gin.Context) {
	var req api.ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(h.validator.ParseError(err)))
		return
	}

	field := orders.Field(req.Field)
	order, err := h.service.Toggle(c.Request.Context(), c.Param("id"), field)
	if err != nil {
		fail(c, err, orderNotFound)
		return
	}

	value, _ := field.Value(order)

	c.JSON(http.StatusOK, api.OrderResponse{
		Message: fmt.Sprintf("%s toggled to %t successfully", field, value),
		Order:   order,
	})
}

// PATCH /api/day-orders/:id
func (h *OrdersHandler) Update(c *gin.Context) {
	var req api.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(h.validator.ParseError(err)))
		return
	}

	order, err := h.service.Update(c.Request.Context(), c.Param("id"), orders.Patch(req))
	if err != nil {
		fail(c, err, orderNotFound)
		return
	}
	c.JSON(http.StatusOK, order)
}

// DELETE /api/day-orders/:id
func (h *OrdersHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err, orderNotFound)
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{Message: "Order deleted successfully"})
}

// GET /api/day-orders/today/summary
func (h *OrdersHandler) TodaySummary(c *gin.Context) {
	summary, err := h.service.TodaySummary(c.Request.Context())
	if err != nil {
		fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, summary)
}
