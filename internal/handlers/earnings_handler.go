package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"talentbridge/config"
	"talentbridge/internal/payments"
	"talentbridge/internal/rails"
	"talentbridge/models"

	"github.com/gin-gonic/gin"
)

// earningsView — снимок заработка в основных единицах валюты.
// Перевод из минорных единиц происходит только здесь, на границе
// представления.
type earningsView struct {
	AvailableBalance float64   `json:"availableBalance"`
	PendingBalance   float64   `json:"pendingBalance"`
	TotalEarnings    float64   `json:"totalEarnings"`
	Currency         string    `json:"currency"`
	AsOf             time.Time `json:"asOf"`
	Stale            bool      `json:"stale"`
}

func newEarningsView(s payments.EarningsSnapshot, stale bool) earningsView {
	return earningsView{
		AvailableBalance: payments.ToMajorUnits(s.AvailableBalance),
		PendingBalance:   payments.ToMajorUnits(s.PendingBalance),
		TotalEarnings:    payments.ToMajorUnits(s.TotalEarnings),
		Currency:         s.Currency,
		AsOf:             s.AsOf,
		Stale:            stale,
	}
}

func contractorAccount(c *gin.Context) (models.ContractorAccount, bool) {
	contractorID := c.GetUint("user_id")
	var account models.ContractorAccount
	err := config.DB.Where("contractor_id = ? AND rail = ?", contractorID, rails.RailTrolley).First(&account).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Счет для выплат не найден, пройдите онбординг"})
		return account, false
	}
	return account, true
}

// GetEarningsHandler возвращает снимок заработка исполнителя.
//
// Снимок всегда вычисляется заново из данных провайдера. Если провайдер
// недоступен, отдаем последний удачный снимок из кэша с флагом stale —
// пользователь видит цифры, но знает, что они не свежие.
func GetEarningsHandler(c *gin.Context) {
	account, ok := contractorAccount(c)
	if !ok {
		return
	}
	cacheKey := fmt.Sprintf("earnings:%d", account.ContractorID)

	snapshot, err := earnings.GetEarnings(c.Request.Context(), account.ExternalAccountID)
	if err != nil {
		slog.Warn("Агрегация заработка не удалась, пробуем кэш", "contractor_id", account.ContractorID, "error", err)
		if config.RDB != nil {
			if data, cacheErr := config.RDB.Get(config.Ctx, cacheKey).Bytes(); cacheErr == nil {
				var cached payments.EarningsSnapshot
				if json.Unmarshal(data, &cached) == nil {
					c.JSON(http.StatusOK, newEarningsView(cached, true))
					return
				}
			}
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Провайдер выплат недоступен"})
		return
	}

	if config.RDB != nil {
		if data, marshalErr := json.Marshal(snapshot); marshalErr == nil {
			if err := config.RDB.Set(config.Ctx, cacheKey, data, time.Hour).Err(); err != nil {
				slog.Warn("Не удалось закэшировать снимок заработка", "error", err)
			}
		}
	}

	c.JSON(http.StatusOK, newEarningsView(snapshot, false))
}

// GetEarningsTransactionsHandler возвращает последние операции по счету.
func GetEarningsTransactionsHandler(c *gin.Context) {
	account, ok := contractorAccount(c)
	if !ok {
		return
	}

	limit := listLimit(c)
	transactions, err := earnings.GetTransactions(c.Request.Context(), account.ExternalAccountID, limit)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Не удалось получить операции у провайдера"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": transactions})
}

// GetEarningsPayoutsHandler возвращает последние выплаты.
func GetEarningsPayoutsHandler(c *gin.Context) {
	account, ok := contractorAccount(c)
	if !ok {
		return
	}

	limit := listLimit(c)
	payouts, err := earnings.GetPayouts(c.Request.Context(), account.ExternalAccountID, limit)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Не удалось получить выплаты у провайдера"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payouts": payouts})
}

// ReconcileEarningsHandler — ручная сверка после пропущенного вебхука.
// Сверка — это повторное вычисление из источника, а не правка кэша.
func ReconcileEarningsHandler(c *gin.Context) {
	account, ok := contractorAccount(c)
	if !ok {
		return
	}

	snapshot, err := earnings.ReconcileEarnings(c.Request.Context(), account.ExternalAccountID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Сверка не удалась: провайдер недоступен"})
		return
	}

	// Свежий снимок замещает закэшированный
	if config.RDB != nil {
		cacheKey := fmt.Sprintf("earnings:%d", account.ContractorID)
		if data, marshalErr := json.Marshal(snapshot); marshalErr == nil {
			if err := config.RDB.Set(config.Ctx, cacheKey, data, time.Hour).Err(); err != nil {
				slog.Warn("Не удалось обновить кэш после сверки", "error", err)
			}
		}
	}

	c.JSON(http.StatusOK, newEarningsView(snapshot, false))
}

func listLimit(c *gin.Context) int {
	limit, _ := strconv.Atoi(c.Query("limit"))
	switch {
	case limit <= 0:
		return 25
	case limit > 100:
		return 100
	}
	return limit
}
