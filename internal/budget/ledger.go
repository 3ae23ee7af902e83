package budget

import (
	"errors"
	"log/slog"
	"time"

	"talentbridge/models"

	"github.com/Knetic/govaluate"
	"gorm.io/gorm"
)

var (
	// ErrNoBudget — бюджет для бизнеса не настроен.
	ErrNoBudget = errors.New("бюджет не настроен")
	// ErrBudgetExceeded — списание отклонено, счетчик не изменен.
	ErrBudgetExceeded = errors.New("превышен лимит бюджета")
)

// AlertFunc вызывается, когда правило оповещения бюджета сработало
// после успешного списания.
type AlertFunc func(businessID uint, rule string, period models.BudgetPeriod)

// Ledger ведет лимиты расходов бизнесов.
type Ledger struct {
	db      *gorm.DB
	onAlert AlertFunc
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// SetAlertFunc подключает получателя оповещений о срабатывании правил.
func (l *Ledger) SetAlertFunc(fn AlertFunc) { l.onAlert = fn }

// GetBudget возвращает активный бюджет бизнеса или ErrNoBudget.
func (l *Ledger) GetBudget(businessID uint) (*models.BudgetPeriod, error) {
	var period models.BudgetPeriod
	if err := l.db.Where("business_id = ?", businessID).First(&period).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoBudget
		}
		return nil, err
	}
	if err := l.rolloverIfDue(&period); err != nil {
		return nil, err
	}
	return &period, nil
}

// SetBudgetInput — новая конфигурация бюджета. Заменяет действующую
// целиком; счетчик used при этом не сбрасывается.
type SetBudgetInput struct {
	Cap          *int64
	Period       string
	StartDate    *time.Time
	EndDate      *time.Time
	ResetEnabled bool
	AlertRule    string
}

// SetBudget записывает конфигурацию бюджета бизнеса.
func (l *Ledger) SetBudget(businessID uint, in SetBudgetInput) (*models.BudgetPeriod, error) {
	if in.Period == "" {
		in.Period = models.BudgetPeriodMonthly
	}

	var period models.BudgetPeriod
	err := l.db.Where("business_id = ?", businessID).First(&period).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	period.BusinessID = businessID
	period.Cap = in.Cap
	period.Period = in.Period
	period.ResetEnabled = in.ResetEnabled
	period.AlertRule = in.AlertRule

	now := time.Now().UTC()
	if in.StartDate != nil {
		period.StartDate = *in.StartDate
	} else if period.StartDate.IsZero() {
		period.StartDate = now
	}
	if in.EndDate != nil {
		period.EndDate = *in.EndDate
	} else if period.EndDate.IsZero() {
		period.EndDate = addPeriod(period.StartDate, period.Period)
	}

	if err := l.db.Save(&period).Error; err != nil {
		return nil, err
	}
	return &period, nil
}

// ResetBudget обнуляет счетчик used, не трогая лимит и границы периода.
func (l *Ledger) ResetBudget(businessID uint) (*models.BudgetPeriod, error) {
	result := l.db.Model(&models.BudgetPeriod{}).
		Where("business_id = ?", businessID).
		Update("used", 0)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNoBudget
	}
	return l.GetBudget(businessID)
}

// RecordSpend пытается прибавить amount к счетчику used.
//
// Проверка лимита и прибавление выполняются одним условным UPDATE:
// два конкурентных платежа не могут оба пройти проверку и вылезти
// за лимит. Либо вся сумма засчитана, либо счетчик не изменен.
func (l *Ledger) RecordSpend(businessID uint, amount int64) (*models.BudgetPeriod, error) {
	// Сначала даем окну перекатиться, если срок вышел
	period, err := l.GetBudget(businessID)
	if err != nil {
		return nil, err
	}

	result := l.db.Model(&models.BudgetPeriod{}).
		Where("business_id = ? AND (cap IS NULL OR used + ? <= cap)", businessID, amount).
		Update("used", gorm.Expr("used + ?", amount))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrBudgetExceeded
	}

	period, err = l.GetBudget(businessID)
	if err != nil {
		return nil, err
	}
	l.fireAlert(amount, *period)
	return period, nil
}

// rolloverIfDue сбрасывает счетчик и сдвигает окно на длину периода,
// когда endDate прошел и включен автосброс. Без resetEnabled границы
// периода носят справочный характер.
func (l *Ledger) rolloverIfDue(period *models.BudgetPeriod) error {
	if !period.ResetEnabled {
		return nil
	}
	now := time.Now().UTC()
	if !now.After(period.EndDate) {
		return nil
	}

	start, end := period.StartDate, period.EndDate
	for now.After(end) {
		start = end
		end = addPeriod(end, period.Period)
	}

	updates := map[string]interface{}{
		"used":       0,
		"start_date": start,
		"end_date":   end,
	}
	// Защита от двойного переката при конкурентных чтениях
	result := l.db.Model(&models.BudgetPeriod{}).
		Where("id = ? AND end_date = ?", period.ID, period.EndDate).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		slog.Info("Бюджетный период перекатился",
			"business_id", period.BusinessID, "start", start, "end", end)
	}
	return l.db.First(period, period.ID).Error
}

// fireAlert вычисляет правило оповещения по свежему состоянию бюджета.
// Ошибка в правиле не должна ронять списание — пишем в журнал и идем дальше.
func (l *Ledger) fireAlert(amount int64, period models.BudgetPeriod) {
	if period.AlertRule == "" || l.onAlert == nil {
		return
	}

	expr, err := govaluate.NewEvaluableExpression(period.AlertRule)
	if err != nil {
		slog.Warn("Ошибка в правиле оповещения бюджета",
			"business_id", period.BusinessID, "rule", period.AlertRule, "error", err)
		return
	}

	parameters := map[string]interface{}{
		"used":   float64(period.Used),
		"amount": float64(amount),
		"cap":    0.0,
	}
	if period.Cap != nil {
		parameters["cap"] = float64(*period.Cap)
	}

	result, err := expr.Evaluate(parameters)
	if err != nil {
		slog.Warn("Не удалось вычислить правило оповещения бюджета",
			"business_id", period.BusinessID, "rule", period.AlertRule, "error", err)
		return
	}

	if fired, ok := result.(bool); ok && fired {
		l.onAlert(period.BusinessID, period.AlertRule, period)
	}
}

func addPeriod(t time.Time, period string) time.Time {
	switch period {
	case models.BudgetPeriodQuarterly:
		return t.AddDate(0, 3, 0)
	case models.BudgetPeriodYearly:
		return t.AddDate(1, 0, 0)
	default:
		return t.AddDate(0, 1, 0)
	}
}
