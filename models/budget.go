package models

import (
	"time"

	"gorm.io/gorm"
)

// Допустимые значения периода бюджета.
const (
	BudgetPeriodMonthly   = "monthly"
	BudgetPeriodQuarterly = "quarterly"
	BudgetPeriodYearly    = "yearly"
)

// BudgetPeriod представляет лимит расходов бизнеса на учетный период.
// Cap == nil означает безлимитный бюджет: recordSpend всегда проходит,
// а остаток в ответах отдается как null.
type BudgetPeriod struct {
	gorm.Model
	BusinessID uint   `json:"businessId" gorm:"uniqueIndex;not null"`
	Business   *User  `json:"business,omitempty" gorm:"foreignKey:BusinessID"`
	Cap        *int64 `json:"cap"`                           // минорные единицы
	Used       int64  `json:"used" gorm:"not null;default:0"` // растет монотонно до сброса
	Period     string `json:"period" gorm:"size:16;default:'monthly'"`

	StartDate    time.Time `json:"startDate"`
	EndDate      time.Time `json:"endDate"`
	ResetEnabled bool      `json:"resetEnabled"`

	// Необязательное правило оповещения, например "used >= cap * 0.8".
	// Вычисляется на каждом recordSpend (govaluate).
	AlertRule string `json:"alertRule"`
}

func (BudgetPeriod) TableName() string { return "budget_periods" }

// Remaining возвращает остаток бюджета; nil — бюджет безлимитный.
func (b BudgetPeriod) Remaining() *int64 {
	if b.Cap == nil {
		return nil
	}
	r := *b.Cap - b.Used
	return &r
}
