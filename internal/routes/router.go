package routes

import (
	"talentbridge/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRoutes инициализирует все маршруты приложения.
func SetupRoutes(r *gin.Engine) {
	// --- Публичные маршруты ---
	// Регистрация, вход и вебхуки провайдеров аутентификации не требуют:
	// вебхуки защищены подписью на уровне провайдера.
	RegisterAuthRoutes(r)
	RegisterWebhookRoutes(r)

	// --- Защищенная группа маршрутов ---
	authRequired := r.Group("/")
	authRequired.Use(middleware.AuthMiddleware())
	{
		RegisterAPIRoutes(authRequired)
	}
}
