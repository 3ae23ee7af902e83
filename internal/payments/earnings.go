package payments

import (
	"context"
	"fmt"
	"sync"
	"time"

	"talentbridge/internal/rails"
)

// Сколько последних выплат учитывается в общем заработке.
const payoutHistoryLimit = 100

// EarningsSnapshot — заработок исполнителя на момент asOf.
// Снимок каждый раз вычисляется заново из данных провайдера и нигде
// не сохраняется: восстановление после пропущенного вебхука — это
// повторное вычисление, а не правка закэшированного значения.
type EarningsSnapshot struct {
	AvailableBalance int64     `json:"availableBalance"` // минорные единицы
	PendingBalance   int64     `json:"pendingBalance"`
	TotalEarnings    int64     `json:"totalEarnings"`
	Currency         string    `json:"currency"`
	AsOf             time.Time `json:"asOf"`
}

// EarningsFetchError — агрегация прервана из-за сбоя провайдера.
// Частичный снимок не возвращается никогда.
type EarningsFetchError struct {
	AccountID string
	Err       error
}

func (e *EarningsFetchError) Error() string {
	return fmt.Sprintf("не удалось собрать заработок по счету %s: %v", e.AccountID, e.Err)
}

func (e *EarningsFetchError) Unwrap() error { return e.Err }

// balanceReader — операции провайдера, нужные агрегатору.
type balanceReader interface {
	GetBalance(ctx context.Context, rail, accountID string) (rails.Balance, error)
	ListPayouts(ctx context.Context, rail, accountID string, limit int) ([]rails.Payout, error)
	ListTransactions(ctx context.Context, rail, accountID string, limit int) ([]rails.Transaction, error)
}

// Aggregator вычисляет заработок исполнителя по данным провайдера выплат.
type Aggregator struct {
	gateway         balanceReader
	rail            string
	defaultCurrency string
}

func NewAggregator(gateway balanceReader, rail, defaultCurrency string) *Aggregator {
	return &Aggregator{gateway: gateway, rail: rail, defaultCurrency: defaultCurrency}
}

// GetEarnings собирает снимок заработка: баланс и история выплат
// запрашиваются параллельно (это независимые чтения), но снимок
// возвращается только когда готовы оба. Любой сбой отменяет всё.
func (a *Aggregator) GetEarnings(ctx context.Context, accountID string) (EarningsSnapshot, error) {
	var (
		wg         sync.WaitGroup
		balance    rails.Balance
		payouts    []rails.Payout
		balanceErr error
		payoutErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		balance, balanceErr = a.gateway.GetBalance(ctx, a.rail, accountID)
	}()
	go func() {
		defer wg.Done()
		payouts, payoutErr = a.gateway.ListPayouts(ctx, a.rail, accountID, payoutHistoryLimit)
	}()
	wg.Wait()

	if balanceErr != nil {
		return EarningsSnapshot{}, &EarningsFetchError{AccountID: accountID, Err: balanceErr}
	}
	if payoutErr != nil {
		return EarningsSnapshot{}, &EarningsFetchError{AccountID: accountID, Err: payoutErr}
	}

	var snapshot EarningsSnapshot
	for _, bucket := range balance.Available {
		snapshot.AvailableBalance += bucket.Amount
	}
	for _, bucket := range balance.Pending {
		snapshot.PendingBalance += bucket.Amount
	}

	// Заработанным считаем то, что выплачено или уже в пути
	for _, payout := range payouts {
		if payout.Status == rails.PayoutStatusPaid || payout.Status == rails.PayoutStatusInTransit {
			snapshot.TotalEarnings += payout.Amount
		}
	}

	snapshot.Currency = a.defaultCurrency
	if len(balance.Available) > 0 {
		snapshot.Currency = balance.Available[0].Currency
	}
	snapshot.AsOf = time.Now().UTC()

	return snapshot, nil
}

// GetPayouts возвращает последние выплаты счета, новые первыми.
func (a *Aggregator) GetPayouts(ctx context.Context, accountID string, limit int) ([]rails.Payout, error) {
	payouts, err := a.gateway.ListPayouts(ctx, a.rail, accountID, limit)
	if err != nil {
		return nil, &EarningsFetchError{AccountID: accountID, Err: err}
	}
	return payouts, nil
}

// GetTransactions возвращает последние операции по счету, новые первыми.
func (a *Aggregator) GetTransactions(ctx context.Context, accountID string, limit int) ([]rails.Transaction, error) {
	transactions, err := a.gateway.ListTransactions(ctx, a.rail, accountID, limit)
	if err != nil {
		return nil, &EarningsFetchError{AccountID: accountID, Err: err}
	}
	return transactions, nil
}

// ReconcileEarnings — точка входа ручной сверки. По определению это
// повторное вычисление снимка из источника: ничего другого сверка
// не делает и делать не должна.
func (a *Aggregator) ReconcileEarnings(ctx context.Context, accountID string) (EarningsSnapshot, error) {
	return a.GetEarnings(ctx, accountID)
}

// ToMajorUnits переводит минорные единицы в основные для отображения.
// Вся внутренняя арифметика остается в минорных единицах; эта функция
// применяется только на границе представления.
func ToMajorUnits(amount int64) float64 {
	return float64(amount) / 100
}
