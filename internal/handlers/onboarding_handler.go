package handlers

import (
	"errors"
	"net/http"

	"talentbridge/config"
	"talentbridge/internal/cache"
	"talentbridge/internal/rails"
	"talentbridge/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// OnboardInput — данные для создания счета исполнителя у провайдера выплат.
type OnboardInput struct {
	Country  string `json:"country" binding:"required,len=2"`
	Currency string `json:"currency" binding:"required,len=3"`
}

// OnboardContractorHandler создает внешний счет исполнителя.
//
// Счет создается ровно один раз: повторный вызов возвращает уже
// существующий счет. Молчаливое пересоздание завело бы у провайдера
// дубликат получателя с пустой историей выплат.
func OnboardContractorHandler(c *gin.Context) {
	contractorID := c.GetUint("user_id")

	var input OnboardInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	var existing models.ContractorAccount
	err := config.DB.Where("contractor_id = ? AND rail = ?", contractorID, rails.RailTrolley).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"account": existing, "created": false})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске счета"})
		return
	}

	var user models.User
	if err := config.DB.First(&user, contractorID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Пользователь не найден"})
		return
	}

	recipient, err := gateway.CreateRecipient(c.Request.Context(), rails.RailTrolley, rails.RecipientRequest{
		Email:    user.Email,
		Name:     user.FullName,
		Country:  input.Country,
		Currency: input.Currency,
	})
	if err != nil {
		var perr *rails.ProviderError
		if errors.As(err, &perr) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Провайдер отклонил создание счета", "code": perr.Code, "message": perr.Message})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Провайдер выплат недоступен"})
		return
	}

	account := models.ContractorAccount{
		ContractorID:      contractorID,
		Rail:              rails.RailTrolley,
		ExternalAccountID: recipient.ID,
		Country:           recipient.Country,
		Currency:          recipient.Currency,
	}
	if err := config.DB.Create(&account).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось сохранить счет"})
		return
	}

	invalidator.InvalidateAfter(c.Request.Context(), cache.KindUserChange, cache.EventContext{
		ID: &contractorID,
	})

	c.JSON(http.StatusCreated, gin.H{"account": account, "created": true})
}

// TestRailConnectionHandler проверяет доступность провайдера и ключи.
func TestRailConnectionHandler(c *gin.Context) {
	rail := c.Param("rail")
	if rail != rails.RailStripe && rail != rails.RailTrolley {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неизвестный провайдер: " + rail})
		return
	}

	if err := gateway.TestConnection(c.Request.Context(), rail); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"rail": rail, "ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rail": rail, "ok": true})
}
