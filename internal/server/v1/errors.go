package v1

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/canteen-api/internal/analytics"
	"github.com/nulzo/canteen-api/internal/auth"
	"github.com/nulzo/canteen-api/internal/httpclient"
	"github.com/nulzo/canteen-api/internal/orders"
	"github.com/nulzo/canteen-api/internal/store"
	"github.com/nulzo/canteen-api/internal/telegram"
	"github.com/nulzo/canteen-api/pkg/api"
)

// fail translates a service error into a Problem for the error middleware.
// notFound is the detail used when the lookup came back empty.
func fail(c *gin.Context, err error, notFound string) {
	_ = c.Error(problemFor(err, notFound))
}

func problemFor(err error, notFound string) *api.Problem {
	var apiErr *telegram.APIError
	var upstream *httpclient.UpstreamError

	switch {
	case errors.Is(err, store.ErrNotFound):
		return api.NotFoundError(notFound)
	case errors.Is(err, store.ErrConflict):
		return api.ConflictError(err.Error())
	case errors.Is(err, analytics.ErrInvalidDate),
		errors.Is(err, analytics.ErrInvalidRange),
		errors.Is(err, orders.ErrInvalidField),
		errors.Is(err, telegram.ErrNoChat):
		return api.BadRequestError(err.Error())
	case errors.Is(err, auth.ErrAdminNotFound):
		return api.BadRequestError("Admin not found")
	case errors.Is(err, auth.ErrInvalidPassword):
		return api.BadRequestError("Invalid password")
	case errors.Is(err, auth.ErrInvalidToken):
		return api.UnauthorizedError("Invalid or expired token")
	case errors.As(err, &apiErr), errors.As(err, &upstream):
		return api.UpstreamError("Telegram API request failed", err)
	}
	return api.InternalError("An unexpected error occurred.", err)
}
