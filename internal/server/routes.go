package server

import (
	"github.com/nulzo/canteen-api/internal/server/middleware"
	v1 "github.com/nulzo/canteen-api/internal/server/v1"
)

func (s *Server) SetupRoutes() {
	if s.config.Tracing.Enabled {
		s.router.Use(middleware.Tracing(s.config.Tracing.ServiceName))
	}
	s.router.Use(middleware.CORS(s.config.Server.CORSOrigins))
	if s.config.RateLimit.RequestsPerSecond > 0 {
		limiter := middleware.NewRateLimiter(s.config.RateLimit.RequestsPerSecond, s.config.RateLimit.Burst, s.logger)
		s.router.Use(limiter.Middleware())
	}
	s.router.Use(middleware.ErrorHandler(s.logger))

	health := v1.NewHealthHandler(s.services.Repo, s.version)
	s.router.GET("/health", health.Health)
	s.router.GET("/ready", health.Ready)

	requireAuth := middleware.Auth(s.services.Auth)

	api := s.router.Group("/api")

	admins := v1.NewAdminHandler(s.services.Auth, s.validator)
	adminGroup := api.Group("/admins")
	{
		adminGroup.POST("/create-admin", admins.Create)
		adminGroup.POST("/login-admin", admins.Login)
	}

	analytics := v1.NewAnalyticsHandler(s.services.Analytics, s.validator)
	analyticsGroup := api.Group("/analytics", requireAuth)
	{
		analyticsGroup.GET("/summary", analytics.Summary)
		analyticsGroup.GET("/today", analytics.Today)
		analyticsGroup.GET("/date/:date", analytics.ByDate)
		analyticsGroup.GET("/range", analytics.Range)
		analyticsGroup.GET("/monthly", analytics.Monthly)
		analyticsGroup.GET("/monthly/:year/:month", analytics.Month)
		analyticsGroup.POST("/create-monthly", analytics.CreateMonthly)
	}

	items := v1.NewItemsHandler(s.services.Items, s.validator)
	itemGroup := api.Group("/items", requireAuth)
	{
		itemGroup.POST("/add-item", items.Add)
		itemGroup.GET("", items.List)
	}

	employees := v1.NewEmployeesHandler(s.services.Employees, s.validator)
	employeeGroup := api.Group("/employees", requireAuth)
	{
		employeeGroup.POST("", employees.Create)
		employeeGroup.GET("", employees.List)
		employeeGroup.GET("/:id", employees.Get)
	}

	orders := v1.NewOrdersHandler(s.services.Orders, s.validator)
	// the employee token in the body is the credential for by-token
	api.POST("/day-orders/by-token", orders.ByToken)
	orderGroup := api.Group("/day-orders", requireAuth)
	{
		orderGroup.POST("", orders.Create)
		orderGroup.GET("/today/summary", orders.TodaySummary)
		orderGroup.GET("/date/:date", orders.ByDate)
		orderGroup.GET("/employee/:emp_id", orders.ByEmployee)
		orderGroup.GET("/:id", orders.Get)
		orderGroup.PATCH("/:id/toggle", orders.Toggle)
		orderGroup.PATCH("/:id", orders.Update)
		orderGroup.DELETE("/:id", orders.Delete)
	}

	if s.services.Telegram != nil {
		telegram := v1.NewTelegramHandler(s.services.Telegram)
		api.POST("/telegram/bot", requireAuth, telegram.Register)
	}
}
