package handlers

import (
	"errors"
	"net/http"
	"time"

	"talentbridge/internal/budget"
	"talentbridge/internal/cache"
	"talentbridge/models"

	"github.com/gin-gonic/gin"
)

// budgetView — бюджет с посчитанным остатком.
// remainingBudget == null означает безлимитный бюджет.
type budgetView struct {
	models.BudgetPeriod
	RemainingBudget *int64 `json:"remainingBudget"`
}

func newBudgetView(period models.BudgetPeriod) budgetView {
	return budgetView{BudgetPeriod: period, RemainingBudget: period.Remaining()}
}

// GetBudgetHandler возвращает активный бюджет бизнеса.
func GetBudgetHandler(c *gin.Context) {
	businessID := c.GetUint("user_id")
	period, err := ledger.GetBudget(businessID)
	if err != nil {
		if errors.Is(err, budget.ErrNoBudget) {
			c.JSON(http.StatusOK, gin.H{"budget": nil})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить бюджет"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"budget": newBudgetView(*period)})
}

// SetBudgetInput — новая конфигурация бюджета бизнеса.
type SetBudgetInput struct {
	Cap          *int64     `json:"cap"` // минорные единицы, null = безлимит
	Period       string     `json:"period" binding:"omitempty,oneof=monthly quarterly yearly"`
	StartDate    *time.Time `json:"startDate"`
	EndDate      *time.Time `json:"endDate"`
	ResetEnabled bool       `json:"resetEnabled"`
	AlertRule    string     `json:"alertRule"`
}

// SetBudgetHandler заменяет конфигурацию бюджета целиком.
// Счетчик израсходованного при этом не трогается.
func SetBudgetHandler(c *gin.Context) {
	businessID := c.GetUint("user_id")

	var input SetBudgetInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}
	if input.Cap != nil && *input.Cap < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Лимит бюджета не может быть отрицательным"})
		return
	}

	period, err := ledger.SetBudget(businessID, budget.SetBudgetInput{
		Cap:          input.Cap,
		Period:       input.Period,
		StartDate:    input.StartDate,
		EndDate:      input.EndDate,
		ResetEnabled: input.ResetEnabled,
		AlertRule:    input.AlertRule,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось сохранить бюджет"})
		return
	}

	invalidator.InvalidateAfter(c.Request.Context(), cache.KindBudgetChange, cache.EventContext{
		BusinessID: &businessID,
	})

	c.JSON(http.StatusOK, gin.H{"budget": newBudgetView(*period)})
}

// ResetBudgetHandler обнуляет счетчик израсходованного.
func ResetBudgetHandler(c *gin.Context) {
	businessID := c.GetUint("user_id")

	period, err := ledger.ResetBudget(businessID)
	if err != nil {
		if errors.Is(err, budget.ErrNoBudget) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Бюджет не настроен"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось сбросить бюджет"})
		return
	}

	invalidator.InvalidateAfter(c.Request.Context(), cache.KindBudgetChange, cache.EventContext{
		BusinessID: &businessID,
	})

	c.JSON(http.StatusOK, gin.H{"budget": newBudgetView(*period)})
}
