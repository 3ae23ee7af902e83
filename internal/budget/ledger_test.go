package budget

import (
	"sync"
	"testing"
	"time"

	"talentbridge/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// sqlite не терпит конкурентных писателей — сериализуем соединения
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.BudgetPeriod{}))
	return NewLedger(db)
}

func capOf(v int64) *int64 { return &v }

func TestSetAndGetBudget(t *testing.T) {
	ledger := newTestLedger(t)

	period, err := ledger.SetBudget(1, SetBudgetInput{
		Cap:          capOf(500_00),
		Period:       models.BudgetPeriodMonthly,
		ResetEnabled: true,
	})
	require.NoError(t, err)
	require.Equal(t, int64(500_00), *period.Cap)
	require.Equal(t, int64(0), period.Used)
	require.Equal(t, period.StartDate.AddDate(0, 1, 0), period.EndDate)

	got, err := ledger.GetBudget(1)
	require.NoError(t, err)
	require.Equal(t, period.ID, got.ID)
	require.Equal(t, int64(500_00), *got.Cap)
}

func TestGetBudgetMissing(t *testing.T) {
	ledger := newTestLedger(t)
	_, err := ledger.GetBudget(42)
	require.ErrorIs(t, err, ErrNoBudget)
}

func TestSetBudgetKeepsUsed(t *testing.T) {
	ledger := newTestLedger(t)

	_, err := ledger.SetBudget(1, SetBudgetInput{Cap: capOf(1000)})
	require.NoError(t, err)
	_, err = ledger.RecordSpend(1, 300)
	require.NoError(t, err)

	// Смена лимита не прощает уже потраченное
	period, err := ledger.SetBudget(1, SetBudgetInput{Cap: capOf(2000)})
	require.NoError(t, err)
	require.Equal(t, int64(300), period.Used)
	require.Equal(t, int64(2000), *period.Cap)
}

func TestRecordSpendWithinCap(t *testing.T) {
	ledger := newTestLedger(t)

	_, err := ledger.SetBudget(1, SetBudgetInput{Cap: capOf(1000)})
	require.NoError(t, err)

	period, err := ledger.RecordSpend(1, 400)
	require.NoError(t, err)
	require.Equal(t, int64(400), period.Used)
	require.Equal(t, int64(600), *period.Remaining())
}

func TestRecordSpendExceedsCap(t *testing.T) {
	ledger := newTestLedger(t)

	_, err := ledger.SetBudget(1, SetBudgetInput{Cap: capOf(1000)})
	require.NoError(t, err)
	_, err = ledger.RecordSpend(1, 950)
	require.NoError(t, err)

	_, err = ledger.RecordSpend(1, 100)
	require.ErrorIs(t, err, ErrBudgetExceeded)

	// Отклоненное списание не трогает счетчик
	period, err := ledger.GetBudget(1)
	require.NoError(t, err)
	require.Equal(t, int64(950), period.Used)

	// Ровно до лимита — проходит
	_, err = ledger.RecordSpend(1, 50)
	require.NoError(t, err)
}

func TestRecordSpendNilCapUnlimited(t *testing.T) {
	ledger := newTestLedger(t)

	_, err := ledger.SetBudget(1, SetBudgetInput{Cap: nil})
	require.NoError(t, err)

	period, err := ledger.RecordSpend(1, 10_000_000_00)
	require.NoError(t, err)
	require.Equal(t, int64(10_000_000_00), period.Used)
	require.Nil(t, period.Remaining())
}

func TestRecordSpendNoBudget(t *testing.T) {
	ledger := newTestLedger(t)
	_, err := ledger.RecordSpend(7, 100)
	require.ErrorIs(t, err, ErrNoBudget)
}

// Два конкурентных платежа не должны вдвоем пролезть под лимит.
func TestRecordSpendConcurrent(t *testing.T) {
	ledger := newTestLedger(t)

	_, err := ledger.SetBudget(1, SetBudgetInput{Cap: capOf(500)})
	require.NoError(t, err)

	const workers = 10
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.RecordSpend(1, 100)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, rejected int
	for err := range results {
		switch {
		case err == nil:
			ok++
		default:
			require.ErrorIs(t, err, ErrBudgetExceeded)
			rejected++
		}
	}
	require.Equal(t, 5, ok)
	require.Equal(t, 5, rejected)

	period, err := ledger.GetBudget(1)
	require.NoError(t, err)
	require.Equal(t, int64(500), period.Used)
}

func TestResetBudget(t *testing.T) {
	ledger := newTestLedger(t)

	_, err := ledger.SetBudget(1, SetBudgetInput{Cap: capOf(1000)})
	require.NoError(t, err)
	_, err = ledger.RecordSpend(1, 700)
	require.NoError(t, err)

	period, err := ledger.ResetBudget(1)
	require.NoError(t, err)
	require.Equal(t, int64(0), period.Used)
	require.Equal(t, int64(1000), *period.Cap)

	_, err = ledger.ResetBudget(99)
	require.ErrorIs(t, err, ErrNoBudget)
}

func TestRolloverOnExpiredPeriod(t *testing.T) {
	ledger := newTestLedger(t)

	start := time.Now().UTC().AddDate(0, 0, -45)
	end := start.AddDate(0, 1, 0)
	_, err := ledger.SetBudget(1, SetBudgetInput{
		Cap:          capOf(1000),
		Period:       models.BudgetPeriodMonthly,
		StartDate:    &start,
		EndDate:      &end,
		ResetEnabled: true,
	})
	require.NoError(t, err)
	require.NoError(t, ledger.db.Model(&models.BudgetPeriod{}).
		Where("business_id = ?", 1).Update("used", 800).Error)

	period, err := ledger.GetBudget(1)
	require.NoError(t, err)
	require.Equal(t, int64(0), period.Used)
	require.True(t, period.EndDate.After(time.Now().UTC()))
	require.Equal(t, period.StartDate.AddDate(0, 1, 0), period.EndDate)
}

func TestNoRolloverWithoutResetEnabled(t *testing.T) {
	ledger := newTestLedger(t)

	start := time.Now().UTC().AddDate(0, -2, 0)
	end := start.AddDate(0, 1, 0)
	_, err := ledger.SetBudget(1, SetBudgetInput{
		Cap:       capOf(1000),
		StartDate: &start,
		EndDate:   &end,
	})
	require.NoError(t, err)
	require.NoError(t, ledger.db.Model(&models.BudgetPeriod{}).
		Where("business_id = ?", 1).Update("used", 800).Error)

	period, err := ledger.GetBudget(1)
	require.NoError(t, err)
	require.Equal(t, int64(800), period.Used)
	require.True(t, period.EndDate.Before(time.Now().UTC()))
}

func TestAlertRuleFires(t *testing.T) {
	ledger := newTestLedger(t)

	var fired bool
	var firedRule string
	ledger.SetAlertFunc(func(businessID uint, rule string, period models.BudgetPeriod) {
		fired = true
		firedRule = rule
	})

	_, err := ledger.SetBudget(1, SetBudgetInput{
		Cap:       capOf(1000),
		AlertRule: "used >= cap * 0.8",
	})
	require.NoError(t, err)

	_, err = ledger.RecordSpend(1, 500)
	require.NoError(t, err)
	require.False(t, fired)

	_, err = ledger.RecordSpend(1, 350)
	require.NoError(t, err)
	require.True(t, fired)
	require.Equal(t, "used >= cap * 0.8", firedRule)
}

func TestBrokenAlertRuleDoesNotBlockSpend(t *testing.T) {
	ledger := newTestLedger(t)
	ledger.SetAlertFunc(func(uint, string, models.BudgetPeriod) {})

	_, err := ledger.SetBudget(1, SetBudgetInput{
		Cap:       capOf(1000),
		AlertRule: "used >>= нечто",
	})
	require.NoError(t, err)

	period, err := ledger.RecordSpend(1, 100)
	require.NoError(t, err)
	require.Equal(t, int64(100), period.Used)
}
