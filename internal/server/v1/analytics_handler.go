package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/canteen-api/internal/analytics"
	"github.com/nulzo/canteen-api/internal/server/validator"
	"github.com/nulzo/canteen-api/pkg/api"
)

type AnalyticsHandler struct {
	service   analytics.Service
	validator *validator.Validator
}

func NewAnalyticsHandler(service analytics.Service, v *validator.Validator) *AnalyticsHandler {
	return &AnalyticsHandler{
		service:   service,
		validator: v,
	}
}

// Today returns today's daily counter, creating it at zero.
//
// GET /api/analytics/today
func (h *AnalyticsHandler) Today(c *gin.Context) {
	counter, err := h.service.Today(c.Request.Context())
	if err != nil {
		fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, counter)
}

// GET /api/analytics/date/:date
func (h *AnalyticsHandler) ByDate(c *gin.Context) {
	counter, err := h.service.GetByDate(c.Request.Context(), c.Param("date"))
	if err != nil {
		fail(c, err, "Analytics not found for this date")
		return
	}
	c.JSON(http.StatusOK, counter)
}

// GET /api/analytics/range?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *AnalyticsHandler) Range(c *gin.Context) {
	if c.Query("start") == "" || c.Query("end") == "" {
		_ = c.Error(api.BadRequestError("Please provide start and end dates"))
		return
	}

	var q api.RangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(api.ValidationError(h.validator.ParseError(err)))
		return
	}

	counters, err := h.service.GetRange(c.Request.Context(), q.Start, q.End)
	if err != nil {
		fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, counters)
}

// GET /api/analytics/monthly
func (h *AnalyticsHandler) Monthly(c *gin.Context) {
	counters, err := h.service.ListMonthly(c.Request.Context())
	if err != nil {
		fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, counters)
}

// GET /api/analytics/monthly/:year/:month
func (h *AnalyticsHandler) Month(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 1 {
		_ = c.Error(api.BadRequestError("Invalid 'year' parameter"))
		return
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		_ = c.Error(api.BadRequestError("Invalid 'month' parameter"))
		return
	}

	counter, err := h.service.GetMonth(c.Request.Context(), year, month)
	if err != nil {
		fail(c, err, "Monthly analytics not found")
		return
	}
	c.JSON(http.StatusOK, counter)
}

// CreateMonthly runs the rollup check on demand. A rollup that is not due
// is a 400 carrying the machine readable reason.
//
// POST /api/analytics/create-monthly
func (h *AnalyticsHandler) CreateMonthly(c *gin.Context) {
	result, err := h.service.EvaluateMonthlyRollup(c.Request.Context())
	if err != nil {
		fail(c, err, "")
		return
	}

	if !result.Created {
		_ = c.Error(api.BadRequestError(
			"Monthly analytics not created",
			api.WithExtension("reason", result.Reason),
		))
		return
	}

	c.JSON(http.StatusCreated, api.RollupResponse{
		Message:   "Monthly analytics created successfully",
		Analytics: result.Counter,
	})
}

// GET /api/analytics/summary
func (h *AnalyticsHandler) Summary(c *gin.Context) {
	summary, err := h.service.GetSummary(c.Request.Context())
	if err != nil {
		fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, summary)
}
