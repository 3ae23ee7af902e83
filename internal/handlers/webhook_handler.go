package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"talentbridge/config"
	"talentbridge/internal/cache"
	"talentbridge/internal/payments"
	"talentbridge/models"

	"github.com/gin-gonic/gin"
)

// RailWebhookInput — уведомление провайдера об изменении статуса платежа.
// Провайдеры доставляют вебхуки «минимум один раз», поэтому обработчик
// обязан быть идемпотентным: повторная доставка того же события не
// меняет результат.
type RailWebhookInput struct {
	ExternalID     string  `json:"externalId" binding:"required"`
	IntentStatus   *string `json:"intentStatus"`
	TransferStatus *string `json:"transferStatus"`
}

// RailWebhookHandler принимает статусные уведомления от провайдеров.
// Здесь обновляются только хранимые сигналы; канонический статус
// по-прежнему вычисляется при каждом чтении.
func RailWebhookHandler(c *gin.Context) {
	var input RailWebhookInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	var payment models.Payment
	if err := config.DB.Preload("Contract").Where("external_id = ?", input.ExternalID).First(&payment).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Платеж с таким внешним ID не найден"})
		return
	}

	if err := payments.ApplyRailUpdate(&payment, input.IntentStatus, input.TransferStatus); err != nil {
		if errors.Is(err, payments.ErrInvalidStateTransition) {
			// Такого не бывает при целых данных: фиксируем и не правим молча
			slog.Error("Провайдер пытается увести платеж из терминального состояния",
				"payment_id", payment.ID, "external_id", input.ExternalID,
				"intent", input.IntentStatus, "transfer", input.TransferStatus)
			c.JSON(http.StatusConflict, gin.H{"error": "Платеж уже в терминальном состоянии"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось применить обновление"})
		return
	}

	if err := config.DB.Save(&payment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось сохранить платеж"})
		return
	}

	// Сброс кэша строго после подтверждения записи
	ectx := cache.EventContext{ID: &payment.ID}
	if payment.Contract != nil {
		ectx.ContractorID = &payment.Contract.ContractorID
		ectx.BusinessID = &payment.Contract.BusinessID
	}
	invalidator.InvalidateAfter(c.Request.Context(), cache.KindPaymentChange, ectx)

	c.JSON(http.StatusOK, gin.H{"status": "ok", "canonicalStatus": payments.Reconcile(payment)})
}
