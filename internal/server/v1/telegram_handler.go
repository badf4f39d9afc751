package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/canteen-api/internal/telegram"
	"github.com/nulzo/canteen-api/pkg/api"
)

type TelegramHandler struct {
	service telegram.Service
}

func NewTelegramHandler(service telegram.Service) *TelegramHandler {
	return &TelegramHandler{service: service}
}

// Register subscribes the chat of the bot's most recent update.
//
// POST /api/telegram/bot
func (h *TelegramHandler) Register(c *gin.Context) {
	update, err := h.service.RegisterLatestChat(c.Request.Context())
	if err != nil {
		fail(c, err, "")
		return
	}

	if update == nil {
		c.JSON(http.StatusOK, api.TelegramUpdateResponse{Message: "No updates available"})
		return
	}
	c.JSON(http.StatusOK, api.TelegramUpdateResponse{
		Message:    "Last Telegram update fetched successfully",
		LastUpdate: update,
	})
}
