package router

import (
	"github.com/gin-gonic/gin"

	"sestrack.app/tracking-server/internal/http/handler/webhook"
)

func SNSWebhookRouter(rg *gin.RouterGroup, h *webhook.SNSHandler) {
	rg.POST("/email-tracking", h.HandleEvent)
}
