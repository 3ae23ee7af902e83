package routes

import (
	"talentbridge/internal/handlers"
	"talentbridge/internal/middleware"
	"talentbridge/models"

	"github.com/gin-gonic/gin"
)

// RegisterAPIRoutes регистрирует все маршруты API, требующие аутентификации.
func RegisterAPIRoutes(api *gin.RouterGroup) {
	apiGroup := api.Group("/api")
	{
		// --- ДОГОВОРЫ И ПЛАТЕЖИ ---
		contracts := apiGroup.Group("/contracts")
		{
			contracts.GET("", handlers.ListContractsHandler)
			contracts.POST("", middleware.RoleMiddleware(models.UserRoleBusiness), handlers.CreateContractHandler)
			contracts.GET("/:id", handlers.GetContractHandler)
			contracts.PUT("/:id/status", handlers.UpdateContractStatusHandler)
			contracts.GET("/:id/payments", handlers.ListContractPaymentsHandler)
			contracts.GET("/:id/reconcile", handlers.ReconcileContractPaymentsHandler)
		}

		payments := apiGroup.Group("/payments")
		{
			payments.POST("", middleware.RoleMiddleware(models.UserRoleBusiness), handlers.CreatePaymentHandler)
			payments.GET("/:id", handlers.GetPaymentHandler)
		}

		// --- ЗАРАБОТОК ИСПОЛНИТЕЛЯ ---
		earnings := apiGroup.Group("/earnings", middleware.RoleMiddleware(models.UserRoleContractor))
		{
			earnings.GET("", handlers.GetEarningsHandler)
			earnings.GET("/transactions", handlers.GetEarningsTransactionsHandler)
			earnings.GET("/payouts", handlers.GetEarningsPayoutsHandler)
			earnings.POST("/reconcile", handlers.ReconcileEarningsHandler)
			earnings.GET("/payouts/export", handlers.ExportPayoutsHandler)
		}

		// --- ОНБОРДИНГ И ПРОВАЙДЕРЫ ---
		apiGroup.POST("/onboarding/account", middleware.RoleMiddleware(models.UserRoleContractor), handlers.OnboardContractorHandler)
		apiGroup.GET("/rails/:rail/ping", handlers.TestRailConnectionHandler)

		// --- БЮДЖЕТ ---
		budget := apiGroup.Group("/budget", middleware.RoleMiddleware(models.UserRoleBusiness))
		{
			budget.GET("", handlers.GetBudgetHandler)
			budget.PUT("", handlers.SetBudgetHandler)
			budget.POST("/reset", handlers.ResetBudgetHandler)
		}

		// --- ЗАЯВКИ ---
		workRequests := apiGroup.Group("/work-requests")
		{
			workRequests.GET("", handlers.ListWorkRequestsHandler)
			workRequests.POST("", middleware.RoleMiddleware(models.UserRoleBusiness), handlers.CreateWorkRequestHandler)
			workRequests.PUT("/:id", handlers.UpdateWorkRequestHandler)
		}

		// --- ПРОЕКТЫ И ЗАДАЧИ ---
		projects := apiGroup.Group("/projects")
		{
			projects.POST("", middleware.RoleMiddleware(models.UserRoleBusiness), handlers.CreateProjectHandler)
			projects.GET("/:id", handlers.GetProjectHandler)
			projects.PUT("/:id", handlers.UpdateProjectHandler)
			projects.POST("/:id/tasks", handlers.CreateTaskHandler)
			projects.PUT("/:id/tasks/:taskId/status", handlers.UpdateTaskStatusHandler)
		}

		// --- ОПОВЕЩЕНИЯ ---
		apiGroup.GET("/notify/ws", handlers.NotifyWSEndpoint)
	}
}
