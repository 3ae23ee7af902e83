package routes

import (
	"talentbridge/internal/handlers"

	"github.com/gin-gonic/gin"
)

// RegisterAuthRoutes регистрирует публичные маршруты аутентификации.
func RegisterAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", handlers.RegisterHandler)
		auth.POST("/login", handlers.LoginHandler)
	}
}

// RegisterWebhookRoutes регистрирует приемники вебхуков провайдеров.
func RegisterWebhookRoutes(r *gin.Engine) {
	r.POST("/webhooks/rails", handlers.RailWebhookHandler)
}
