package main

import (
	"log/slog"
	"os"

	"talentbridge/config"
	"talentbridge/internal/handlers"
	"talentbridge/internal/routes"
	"talentbridge/models"

	"github.com/gin-gonic/gin"
)

func main() {
	config.ConnectDB()
	config.ConnectRedis()
	config.InitAuth()

	if err := config.DB.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.Task{},
		&models.WorkRequest{},
		&models.Contract{},
		&models.Milestone{},
		&models.Payment{},
		&models.ContractorAccount{},
		&models.BudgetPeriod{},
	); err != nil {
		slog.Error("Ошибка миграции схемы БД", "error", err)
		os.Exit(1)
	}

	handlers.InitServices()
	go handlers.NotifyHub.Run()

	r := gin.Default()
	routes.SetupRoutes(r)

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	slog.Info("Запуск сервера", "addr", addr)
	if err := r.Run(addr); err != nil {
		slog.Error("Сервер остановлен с ошибкой", "error", err)
		os.Exit(1)
	}
}
