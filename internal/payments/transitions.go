package payments

import (
	"errors"

	"talentbridge/models"
)

// ErrInvalidStateTransition — попытка увести платеж из терминального
// состояния. При корректных данных недостижимо: если ошибка все же
// возникла, это повреждение данных, а не штатная ситуация. Наверху она
// логируется как фатальная и не гасится молча.
var ErrInvalidStateTransition = errors.New("платеж в терминальном состоянии, переход запрещен")

// ApplyRailUpdate накладывает присланные провайдером статусы на платеж.
// Доставка вебхуков «минимум один раз»: повторное применение того же
// обновления дает тот же результат. Единственный запрет — канонически
// оплаченный платеж не может перестать быть оплаченным.
func ApplyRailUpdate(p *models.Payment, intentStatus, transferStatus *string) error {
	if Reconcile(*p) == StatePaid {
		next := *p
		if intentStatus != nil {
			next.IntentStatus = intentStatus
		}
		if transferStatus != nil {
			next.TransferStatus = transferStatus
		}
		if Reconcile(next) != StatePaid {
			return ErrInvalidStateTransition
		}
	}

	if intentStatus != nil {
		p.IntentStatus = intentStatus
	}
	if transferStatus != nil {
		p.TransferStatus = transferStatus
	}
	return nil
}
