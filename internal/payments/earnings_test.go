package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"talentbridge/internal/rails"

	"github.com/stretchr/testify/require"
)

// fakeRail — провайдер с фиксированными ответами.
type fakeRail struct {
	balance      rails.Balance
	payouts      []rails.Payout
	transactions []rails.Transaction
	balanceErr   error
	payoutErr    error

	payoutLimit int
}

func (f *fakeRail) GetBalance(ctx context.Context, rail, accountID string) (rails.Balance, error) {
	return f.balance, f.balanceErr
}

func (f *fakeRail) ListPayouts(ctx context.Context, rail, accountID string, limit int) ([]rails.Payout, error) {
	f.payoutLimit = limit
	return f.payouts, f.payoutErr
}

func (f *fakeRail) ListTransactions(ctx context.Context, rail, accountID string, limit int) ([]rails.Transaction, error) {
	return f.transactions, nil
}

func testRail() *fakeRail {
	return &fakeRail{
		balance: rails.Balance{
			Available: []rails.BalanceBucket{{Amount: 120_00, Currency: "eur"}, {Amount: 30_50, Currency: "eur"}},
			Pending:   []rails.BalanceBucket{{Amount: 45_00, Currency: "eur"}},
		},
		payouts: []rails.Payout{
			{ID: "po_3", Amount: 200_00, Currency: "eur", Status: "paid"},
			{ID: "po_2", Amount: 150_00, Currency: "eur", Status: "in_transit"},
			{ID: "po_1", Amount: 999_00, Currency: "eur", Status: "failed"}, // не учитывается
		},
	}
}

func TestGetEarnings(t *testing.T) {
	rail := testRail()
	agg := NewAggregator(rail, rails.RailTrolley, "usd")

	snapshot, err := agg.GetEarnings(context.Background(), "acct_1")
	require.NoError(t, err)

	require.Equal(t, int64(150_50), snapshot.AvailableBalance)
	require.Equal(t, int64(45_00), snapshot.PendingBalance)
	// failed-выплата в заработок не входит
	require.Equal(t, int64(350_00), snapshot.TotalEarnings)
	require.Equal(t, "eur", snapshot.Currency)
	require.WithinDuration(t, time.Now().UTC(), snapshot.AsOf, 5*time.Second)
	// История выплат запрашивается с лимитом 100
	require.Equal(t, 100, rail.payoutLimit)
}

func TestGetEarningsDefaultCurrency(t *testing.T) {
	rail := &fakeRail{} // пустой счет без корзин
	agg := NewAggregator(rail, rails.RailTrolley, "usd")

	snapshot, err := agg.GetEarnings(context.Background(), "acct_1")
	require.NoError(t, err)
	require.Equal(t, "usd", snapshot.Currency)
	require.Zero(t, snapshot.AvailableBalance)
	require.Zero(t, snapshot.TotalEarnings)
}

// Повторный вызов без изменений на стороне провайдера дает тот же снимок.
func TestGetEarningsIdempotent(t *testing.T) {
	agg := NewAggregator(testRail(), rails.RailTrolley, "usd")

	first, err := agg.GetEarnings(context.Background(), "acct_1")
	require.NoError(t, err)
	second, err := agg.GetEarnings(context.Background(), "acct_1")
	require.NoError(t, err)

	first.AsOf, second.AsOf = time.Time{}, time.Time{}
	require.Equal(t, first, second)
}

func TestGetEarningsFailureAbortsWhole(t *testing.T) {
	t.Run("сбой баланса", func(t *testing.T) {
		rail := testRail()
		rail.balanceErr = &rails.TransportError{Rail: rails.RailTrolley, Err: errors.New("connection refused")}
		agg := NewAggregator(rail, rails.RailTrolley, "usd")

		snapshot, err := agg.GetEarnings(context.Background(), "acct_1")
		var fetchErr *EarningsFetchError
		require.ErrorAs(t, err, &fetchErr)
		require.Equal(t, "acct_1", fetchErr.AccountID)
		// Частичный снимок не возвращается
		require.Equal(t, EarningsSnapshot{}, snapshot)
	})

	t.Run("сбой истории выплат", func(t *testing.T) {
		rail := testRail()
		rail.payoutErr = &rails.ProviderError{Rail: rails.RailTrolley, StatusCode: 401, Code: "invalid_key"}
		agg := NewAggregator(rail, rails.RailTrolley, "usd")

		_, err := agg.GetEarnings(context.Background(), "acct_1")
		var fetchErr *EarningsFetchError
		require.ErrorAs(t, err, &fetchErr)
		// Исходная ошибка провайдера доступна через Unwrap
		var perr *rails.ProviderError
		require.ErrorAs(t, err, &perr)
		require.Equal(t, "invalid_key", perr.Code)
	})
}

// Сверка по определению совпадает с обычным вычислением снимка.
func TestReconcileEarningsIsRederive(t *testing.T) {
	agg := NewAggregator(testRail(), rails.RailTrolley, "usd")

	reconciled, err := agg.ReconcileEarnings(context.Background(), "acct_1")
	require.NoError(t, err)
	plain, err := agg.GetEarnings(context.Background(), "acct_1")
	require.NoError(t, err)

	reconciled.AsOf, plain.AsOf = time.Time{}, time.Time{}
	require.Equal(t, plain, reconciled)
}

func TestToMajorUnits(t *testing.T) {
	require.Equal(t, 150.5, ToMajorUnits(150_50))
	require.Equal(t, 0.0, ToMajorUnits(0))
	require.Equal(t, -3.25, ToMajorUnits(-325))
}
