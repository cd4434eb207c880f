package router

import (
	"github.com/gin-gonic/gin"

	"sestrack.app/tracking-server/internal/http/handler"
)

func EmailLogRouter(rg *gin.RouterGroup, h *handler.EmailLogHandler) {
	rg.POST("", h.Send)
	rg.GET("", h.List)
	rg.GET("/:id", h.GetByID)
	rg.DELETE("/:id", h.Delete)
}
