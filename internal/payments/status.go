package payments

import "talentbridge/models"

// Канонические статусы платежа, вычисляемые из трех сигналов.
const (
	StatePaid       = "paid"
	StateProcessing = "processing"
	StateIncomplete = "incomplete"
)

// Статусы intent'а, при которых списание еще движется.
var intentProcessing = map[string]bool{
	"succeeded":  true,
	"processing": true,
}

// Статусы intent'а, при которых платеж не завершен и требует действий.
var intentIncomplete = map[string]bool{
	"requires_payment_method": true,
	"requires_action":         true,
	"requires_confirmation":   true,
	"incomplete":              true,
	"canceled":                true,
}

// Reconcile сводит три независимых сигнала статуса к одному каноническому.
// Функция чистая и тотальная: никогда не возвращает ошибку и для любых
// входных строк дает детерминированный результат. Производное значение
// нигде не кэшируется — вычисляется заново при каждом чтении.
//
// Приоритет сигналов, сверху вниз, первый совпавший выигрывает:
//  1. transfer "succeeded" — деньги реально дошли до исполнителя,
//     платеж оплачен, состояние терминальное;
//  2. intent "succeeded"/"processing" — списание еще движется;
//  3. intent requires_*/"incomplete"/"canceled" — списание не завершено;
//  4. локальный статус "completed" — провайдер еще не отчитался,
//     но CRUD-слой закрыл платеж вручную;
//  5. иначе локальный статус отдается без изменений.
func Reconcile(p models.Payment) string {
	if p.TransferStatus != nil && *p.TransferStatus == "succeeded" {
		return StatePaid
	}
	if p.IntentStatus != nil {
		if intentProcessing[*p.IntentStatus] {
			return StateProcessing
		}
		if intentIncomplete[*p.IntentStatus] {
			return StateIncomplete
		}
	}
	if p.LocalStatus == "completed" {
		return StatePaid
	}
	return p.LocalStatus
}
