package handlers

import (
	"crypto/subtle"
	"net/http"

	"taxibot/internal/bot"
	"taxibot/internal/http/middleware"
	"taxibot/internal/utils"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSecretHeader carries the secret_token registered with setWebhook.
const TelegramSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// TelegramWebhook accepts pushed updates. The secret header must match. The
// update is queued and answered with 200 right away; a long handler such as
// a broadcast must not outlive Telegram's timeout or the update is resent.
// A full queue answers 503 so Telegram retries later.
// POST /api/telegram/webhook
func TelegramWebhook(secret string, q bot.Submitter) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(TelegramSecretHeader)
		if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			utils.LogEvent(middleware.GetRequestID(c), "telegram", "webhook", "secret mismatch")
			RespondError(c, http.StatusUnauthorized, "invalid webhook secret", nil)
			return
		}
		var upd tgbotapi.Update
		if err := c.ShouldBindJSON(&upd); err != nil {
			RespondError(c, http.StatusBadRequest, "invalid update", err)
			return
		}
		if !q.Submit(upd) {
			RespondError(c, http.StatusServiceUnavailable, "update queue is full", nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
