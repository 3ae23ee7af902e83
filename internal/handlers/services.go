package handlers

import (
	"talentbridge/config"
	"talentbridge/internal/budget"
	"talentbridge/internal/cache"
	"talentbridge/internal/payments"
	"talentbridge/internal/rails"
	"talentbridge/models"
)

// Сервисы ядра, общие для всех обработчиков. Инициализируются один раз
// при старте приложения.
var (
	gateway     *rails.Gateway
	earnings    *payments.Aggregator
	ledger      *budget.Ledger
	invalidator *cache.Invalidator
)

// InitServices собирает сервисы ядра поверх подключений из config.
// Вызывается из main после ConnectDB/ConnectRedis.
func InitServices() {
	gateway = rails.NewGateway(config.EnvRailCredentials{})
	earnings = payments.NewAggregator(gateway, rails.RailTrolley, "usd")
	ledger = budget.NewLedger(config.DB)
	invalidator = cache.NewInvalidator(config.RDB)

	// Сброшенные ключи представлений уходят подключенным клиентам панели
	invalidator.SetBroadcastFunc(func(keys []string) {
		NotifyHub.BroadcastInvalidation(keys)
	})

	// Срабатывание бюджетного правила — тоже повод для оповещения
	ledger.SetAlertFunc(func(businessID uint, rule string, period models.BudgetPeriod) {
		NotifyHub.BroadcastBudgetAlert(businessID, rule, period)
	})
}
