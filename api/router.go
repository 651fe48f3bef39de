package api

import (
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func NewRouter(logger *zap.Logger, h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(logger, true))

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/health", h.HealthCheckHandler)
		apiGroup.POST("/runs", h.RunHandler)
		apiGroup.GET("/cards", h.CardsHandler)
		apiGroup.POST("/trello-webhook", h.TrelloWebhookHandler)
		apiGroup.HEAD("/trello-webhook", h.TrelloWebhookHandler)
	}
	return router
}
