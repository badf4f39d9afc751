package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/canteen-api/internal/employees"
	"github.com/nulzo/canteen-api/internal/server/validator"
	"github.com/nulzo/canteen-api/pkg/api"
)

type EmployeesHandler struct {
	service   employees.Service
	validator *validator.Validator
}

func NewEmployeesHandler(service employees.Service, v *validator.Validator) *EmployeesHandler {
	return &EmployeesHandler{
		service:   service,
		validator: v,
	}
}

// POST /api/employees
func (h *EmployeesHandler) Create(c *gin.Context) {
	var req api.CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(h.validator.ParseError(err)))
		return
	}

	emp, err := h.service.Create(c.Request.Context(), req.Name, req.Email, req.PhoneNumber)
	if err != nil {
		fail(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, emp)
}

// GET /api/employees
func (h *EmployeesHandler) List(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, api.ListResponse{Object: "list", Data: list})
}

// GET /api/employees/:id
func (h *EmployeesHandler) Get(c *gin.Context) {
	emp, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err, "Employee not found")
		return
	}
	c.JSON(http.StatusOK, emp)
}
