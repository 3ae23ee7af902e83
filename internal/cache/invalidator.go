package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Kind — вид мутации, после которой нужно сбросить зависимые представления.
type Kind string

const (
	KindPaymentChange     Kind = "payment.change"
	KindContractChange    Kind = "contract.change"
	KindBudgetChange      Kind = "budget.change"
	KindUserChange        Kind = "user.change"
	KindWorkRequestChange Kind = "workRequest.change"
	KindWorkRequestCreate Kind = "workRequest.create"
	KindProjectChange     Kind = "project.change"
	KindTaskChange        Kind = "task.change"
)

// EventContext — идентификаторы, уточняющие, какие детальные ключи
// затронуты мутацией. Объект живет один запрос и никуда не сохраняется.
type EventContext struct {
	ID           *uint
	ProjectID    *uint
	ContractorID *uint
	BusinessID   *uint
}

// Зависимости «вид мутации → представления» заданы статической таблицей,
// а не списками по месту вызова: таблицу можно проверить тестами целиком,
// и ни один вызов не может забыть про какое-то представление.
var baseKeys = map[Kind][]string{
	KindPaymentChange:     {"dashboard", "payments:list"},
	KindContractChange:    {"dashboard", "contracts:list"},
	KindBudgetChange:      {"dashboard"},
	KindUserChange:        {},
	KindWorkRequestChange: {"dashboard", "workRequests:list"},
	KindWorkRequestCreate: {"dashboard", "workRequests:list", "notifications"},
	KindProjectChange:     {"dashboard", "projects:list"},
	KindTaskChange:        {},
}

// KeysFor возвращает полный набор ключей представлений для мутации:
// базовые ключи вида плюс детальные ключи по идентификаторам контекста.
// Функция чистая, порядок ключей детерминирован.
func KeysFor(kind Kind, ectx EventContext) []string {
	keys := append([]string{}, baseKeys[kind]...)

	switch kind {
	case KindPaymentChange:
		if ectx.ID != nil {
			keys = append(keys, fmt.Sprintf("payment:%d", *ectx.ID))
		}
		if ectx.ContractorID != nil {
			keys = append(keys, fmt.Sprintf("earnings:%d", *ectx.ContractorID))
		}
		if ectx.BusinessID != nil {
			keys = append(keys, fmt.Sprintf("budget:%d", *ectx.BusinessID))
		}
	case KindContractChange:
		if ectx.ID != nil {
			keys = append(keys, fmt.Sprintf("contract:%d", *ectx.ID))
		}
		if ectx.ProjectID != nil {
			keys = append(keys, fmt.Sprintf("contracts:byProject:%d", *ectx.ProjectID))
		}
	case KindBudgetChange:
		if ectx.BusinessID != nil {
			keys = append(keys, fmt.Sprintf("budget:%d", *ectx.BusinessID))
		}
	case KindUserChange:
		if ectx.ID != nil {
			keys = append(keys, fmt.Sprintf("user:%d:data", *ectx.ID))
		}
	case KindWorkRequestChange, KindWorkRequestCreate:
		if ectx.ID != nil {
			keys = append(keys, fmt.Sprintf("workRequest:%d", *ectx.ID))
		}
		if ectx.ProjectID != nil {
			keys = append(keys,
				fmt.Sprintf("project:%d", *ectx.ProjectID),
				fmt.Sprintf("workRequests:byProject:%d", *ectx.ProjectID))
		}
	case KindProjectChange:
		if ectx.ID != nil {
			keys = append(keys,
				fmt.Sprintf("project:%d", *ectx.ID),
				fmt.Sprintf("tasks:byProject:%d", *ectx.ID))
		}
	case KindTaskChange:
		if ectx.ID != nil {
			keys = append(keys, fmt.Sprintf("task:%d", *ectx.ID))
		}
		if ectx.ProjectID != nil {
			keys = append(keys,
				fmt.Sprintf("project:%d", *ectx.ProjectID),
				fmt.Sprintf("tasks:byProject:%d", *ectx.ProjectID))
		}
	}

	return keys
}

// BroadcastFunc получает список сброшенных ключей, чтобы разослать его
// подключенным клиентам панели (они перечитают данные сами).
type BroadcastFunc func(keys []string)

// Invalidator сбрасывает закэшированные представления после мутаций.
type Invalidator struct {
	rdb       *redis.Client
	broadcast BroadcastFunc
}

// NewInvalidator принимает nil-клиент: кэш тогда считается выключенным,
// и сброс превращается в no-op с тем же возвращаемым набором ключей.
func NewInvalidator(rdb *redis.Client) *Invalidator {
	return &Invalidator{rdb: rdb}
}

func (inv *Invalidator) SetBroadcastFunc(fn BroadcastFunc) { inv.broadcast = fn }

// InvalidateAfter сбрасывает все представления, зависящие от мутации.
// Вызывается строго после подтверждения записи в БД: сброс до коммита
// позволил бы читателю увидеть представление поверх недолговечных данных.
//
// Весь набор ключей удаляется одной командой DEL — читатель не может
// застать состояние, где часть представлений свежая, а часть устарела
// относительно той же мутации.
//
// Отказ кэша не валит мутацию: пропущенный сброс деградирует до
// согласованности при следующем естественном перечитывании.
func (inv *Invalidator) InvalidateAfter(ctx context.Context, kind Kind, ectx EventContext) []string {
	keys := KeysFor(kind, ectx)
	if len(keys) == 0 {
		return keys
	}

	if inv.rdb != nil {
		if err := inv.rdb.Del(ctx, keys...).Err(); err != nil {
			slog.Warn("Не удалось сбросить кэш представлений",
				"kind", string(kind), "keys", keys, "error", err)
		}
	}

	if inv.broadcast != nil {
		inv.broadcast(keys)
	}
	return keys
}

// ApplyOptimistic читает текущее значение ключа, применяет updater и
// записывает результат. Возвращает прежнее значение — его вызывающая
// сторона обязана вернуть на место, если мутация в итоге не прошла.
//
// Это косметика для мгновенного отклика интерфейса: она не заменяет
// InvalidateAfter, который все равно обязан отработать после коммита.
func (inv *Invalidator) ApplyOptimistic(ctx context.Context, key string, updater func([]byte) []byte) ([]byte, error) {
	if inv.rdb == nil {
		return nil, nil
	}

	prev, err := inv.rdb.Get(ctx, key).Bytes()
	if err != nil && err != redis.Nil {
		return nil, err
	}

	next := updater(prev)
	if err := inv.rdb.Set(ctx, key, next, 10*time.Minute).Err(); err != nil {
		return prev, err
	}
	return prev, nil
}

// Rollback возвращает прежнее значение ключа после неудачной мутации.
func (inv *Invalidator) Rollback(ctx context.Context, key string, prev []byte) {
	if inv.rdb == nil {
		return
	}
	var err error
	if prev == nil {
		err = inv.rdb.Del(ctx, key).Err()
	} else {
		err = inv.rdb.Set(ctx, key, prev, 10*time.Minute).Err()
	}
	if err != nil {
		slog.Warn("Не удалось откатить оптимистичное обновление кэша", "key", key, "error", err)
	}
}
