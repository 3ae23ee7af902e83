package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"talentbridge/config"
	"talentbridge/internal/budget"
	"talentbridge/internal/cache"
	"talentbridge/internal/payments"
	"talentbridge/internal/rails"
	"talentbridge/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreatePaymentRequest определяет структуру для входящих данных.
type CreatePaymentRequest struct {
	ContractID  uint   `json:"contractId" binding:"required"`
	MilestoneID uint   `json:"milestoneId" binding:"required"`
	Amount      int64  `json:"amount" binding:"required,gt=0"` // минорные единицы
	Currency    string `json:"currency" binding:"required,len=3"`
	Description string `json:"description"`
}

// paymentView — платеж с каноническим статусом, вычисленным при чтении.
type paymentView struct {
	models.Payment
	CanonicalStatus string `json:"canonicalStatus"`
}

// CreatePaymentHandler проводит платеж по этапу договора.
//
// Порядок жесткий: сначала списание с бюджета (единственная долговечная
// запись с проверкой лимита), затем платеж у провайдера, затем локальная
// запись, и только после коммита — сброс кэша представлений.
func CreatePaymentHandler(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные: " + err.Error()})
		return
	}

	var contract models.Contract
	if err := config.DB.First(&contract, req.ContractID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Договор не найден"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске договора"})
		return
	}

	var milestone models.Milestone
	if err := config.DB.Where("id = ? AND contract_id = ?", req.MilestoneID, contract.ID).First(&milestone).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Этап договора не найден"})
		return
	}

	// Блокирующая проверка лимита: без настроенного бюджета платеж
	// проходит, превышение лимита — жесткий отказ
	spendRecorded := false
	if _, err := ledger.RecordSpend(contract.BusinessID, req.Amount); err != nil {
		switch {
		case errors.Is(err, budget.ErrBudgetExceeded):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Превышен лимит бюджета"})
			return
		case errors.Is(err, budget.ErrNoBudget):
			// бюджет не настроен — лимита нет
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось проверить бюджет"})
			return
		}
	} else {
		spendRecorded = true
	}

	// Компенсация списания, если платеж дальше не прошел
	undoSpend := func() {
		if !spendRecorded {
			return
		}
		err := config.DB.Model(&models.BudgetPeriod{}).
			Where("business_id = ?", contract.BusinessID).
			Update("used", gorm.Expr("used - ?", req.Amount)).Error
		if err != nil {
			slog.Error("Не удалось компенсировать списание бюджета",
				"business_id", contract.BusinessID, "amount", req.Amount, "error", err)
		}
	}

	var account models.ContractorAccount
	if err := config.DB.Where("contractor_id = ? AND rail = ?", contract.ContractorID, rails.RailTrolley).
		First(&account).Error; err != nil {
		undoSpend()
		c.JSON(http.StatusConflict, gin.H{"error": "У исполнителя нет счета для выплат"})
		return
	}

	idempotencyKey := uuid.NewString()
	result, err := gateway.CreatePayment(c.Request.Context(), rails.RailTrolley, rails.PaymentRequest{
		Amount:      req.Amount,
		Currency:    req.Currency,
		Destination: account.ExternalAccountID,
		Description: req.Description,
	}, idempotencyKey)
	if err != nil {
		undoSpend()
		var perr *rails.ProviderError
		if errors.As(err, &perr) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Провайдер отклонил платеж", "code": perr.Code, "message": perr.Message})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Не удалось создать платеж у провайдера"})
		return
	}

	payment := models.Payment{
		ContractID:     contract.ID,
		MilestoneID:    milestone.ID,
		Amount:         req.Amount,
		Currency:       req.Currency,
		LocalStatus:    "pending",
		ExternalID:     result.ID,
		IdempotencyKey: idempotencyKey,
	}
	if result.Status != "" {
		payment.IntentStatus = &result.Status
	}
	if err := config.DB.Create(&payment).Error; err != nil {
		undoSpend()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось сохранить платеж"})
		return
	}

	// Запись подтверждена — сбрасываем зависимые представления
	invalidator.InvalidateAfter(c.Request.Context(), cache.KindPaymentChange, cache.EventContext{
		ID:           &payment.ID,
		ContractorID: &contract.ContractorID,
		BusinessID:   &contract.BusinessID,
	})

	c.JSON(http.StatusCreated, paymentView{Payment: payment, CanonicalStatus: payments.Reconcile(payment)})
}

// ListContractPaymentsHandler возвращает платежи договора.
// Канонический статус каждого платежа вычисляется заново при чтении.
func ListContractPaymentsHandler(c *gin.Context) {
	contractID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID договора"})
		return
	}

	var totalRows int64
	query := config.DB.Model(&models.Payment{}).Where("contract_id = ?", contractID)
	if err := query.Count(&totalRows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось посчитать платежи"})
		return
	}

	var list []models.Payment
	if err := query.Scopes(Paginate(c)).Order("created_at DESC").Find(&list).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить платежи"})
		return
	}

	views := make([]paymentView, 0, len(list))
	for _, p := range list {
		views = append(views, paymentView{Payment: p, CanonicalStatus: payments.Reconcile(p)})
	}

	c.JSON(http.StatusOK, CreatePaginatedResponse(c, views, totalRows))
}

// GetPaymentHandler возвращает один платеж с каноническим статусом.
func GetPaymentHandler(c *gin.Context) {
	var payment models.Payment
	if err := config.DB.First(&payment, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Платеж не найден"})
		return
	}
	c.JSON(http.StatusOK, paymentView{Payment: payment, CanonicalStatus: payments.Reconcile(payment)})
}

// ReconcileContractPaymentsHandler — ручная сверка платежей договора.
// Ничего не чинит руками: канонические статусы пересчитываются из
// трех хранимых сигналов, результат отдается как есть.
func ReconcileContractPaymentsHandler(c *gin.Context) {
	contractID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID договора"})
		return
	}

	var list []models.Payment
	if err := config.DB.Where("contract_id = ?", contractID).Order("created_at DESC").Find(&list).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить платежи"})
		return
	}

	type reconciledRow struct {
		PaymentID       uint    `json:"paymentId"`
		LocalStatus     string  `json:"localStatus"`
		IntentStatus    *string `json:"intentStatus"`
		TransferStatus  *string `json:"transferStatus"`
		CanonicalStatus string  `json:"canonicalStatus"`
	}

	rows := make([]reconciledRow, 0, len(list))
	for _, p := range list {
		rows = append(rows, reconciledRow{
			PaymentID:       p.ID,
			LocalStatus:     p.LocalStatus,
			IntentStatus:    p.IntentStatus,
			TransferStatus:  p.TransferStatus,
			CanonicalStatus: payments.Reconcile(p),
		})
	}

	c.JSON(http.StatusOK, gin.H{"payments": rows})
}
