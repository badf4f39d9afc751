package server

import (
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/nulzo/canteen-api/internal/analytics"
	"github.com/nulzo/canteen-api/internal/auth"
	"github.com/nulzo/canteen-api/internal/config"
	"github.com/nulzo/canteen-api/internal/employees"
	"github.com/nulzo/canteen-api/internal/items"
	"github.com/nulzo/canteen-api/internal/orders"
	"github.com/nulzo/canteen-api/internal/server/middleware"
	"github.com/nulzo/canteen-api/internal/server/validator"
	"github.com/nulzo/canteen-api/internal/store"
	"github.com/nulzo/canteen-api/internal/telegram"
	"go.uber.org/zap"
)

// Services groups everything the handlers call into.
// Telegram is nil when the bot is disabled.
type Services struct {
	Repo      store.Repository
	Auth      auth.Service
	Analytics analytics.Service
	Orders    orders.Service
	Employees employees.Service
	Items     items.Service
	Telegram  telegram.Service
}

type Server struct {
	router    *gin.Engine
	config    *config.Config
	logger    *zap.Logger
	services  Services
	validator *validator.Validator
	version   string
}

func New(cfg *config.Config, logger *zap.Logger, services Services, version string) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	engine.Use(ginzap.RecoveryWithZap(logger, true))
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Logger(logger))

	s := &Server{
		router:    engine,
		config:    cfg,
		logger:    logger,
		services:  services,
		validator: validator.New(),
		version:   version,
	}

	s.SetupRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// HTTPServer wraps the router with the listener settings used in production.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              ":" + s.config.Server.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
