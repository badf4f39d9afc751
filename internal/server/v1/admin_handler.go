package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/canteen-api/internal/auth"
	"github.com/nulzo/canteen-api/internal/server/validator"
	"github.com/nulzo/canteen-api/pkg/api"
)

type AdminHandler struct {
	service   auth.Service
	validator *validator.Validator
}

func NewAdminHandler(service auth.Service, v *validator.Validator) *AdminHandler {
	return &AdminHandler{
		service:   service,
		validator: v,
	}
}

// POST /api/admins/create-admin
func (h *AdminHandler) Create(c *gin.Context) {
	var req api.CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(h.validator.ParseError(err)))
		return
	}

	if _, err := h.service.CreateAdmin(c.Request.Context(), req.Email, req.FullName, req.Password); err != nil {
		fail(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, api.MessageResponse{Message: "Admin created successfully"})
}

// POST /api/admins/login-admin
func (h *AdminHandler) Login(c *gin.Context) {
	var req api.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(h.validator.ParseError(err)))
		return
	}

	token, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, api.LoginResponse{Message: "Login successful", Token: token})
}
