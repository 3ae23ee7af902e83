package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func uintPtr(v uint) *uint { return &v }

func TestKeysFor(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		ectx EventContext
		want []string
	}{
		{
			name: "платеж без контекста",
			kind: KindPaymentChange,
			want: []string{"dashboard", "payments:list"},
		},
		{
			name: "платеж с полным контекстом",
			kind: KindPaymentChange,
			ectx: EventContext{ID: uintPtr(3), ContractorID: uintPtr(9), BusinessID: uintPtr(4)},
			want: []string{"dashboard", "payments:list", "payment:3", "earnings:9", "budget:4"},
		},
		{
			name: "контракт с проектом",
			kind: KindContractChange,
			ectx: EventContext{ID: uintPtr(11), ProjectID: uintPtr(2)},
			want: []string{"dashboard", "contracts:list", "contract:11", "contracts:byProject:2"},
		},
		{
			name: "бюджет",
			kind: KindBudgetChange,
			ectx: EventContext{BusinessID: uintPtr(4)},
			want: []string{"dashboard", "budget:4"},
		},
		{
			name: "пользователь",
			kind: KindUserChange,
			ectx: EventContext{ID: uintPtr(8)},
			want: []string{"user:8:data"},
		},
		{
			name: "изменение заявки задевает проект",
			kind: KindWorkRequestChange,
			ectx: EventContext{ID: uintPtr(5), ProjectID: uintPtr(7)},
			want: []string{"dashboard", "workRequests:list", "workRequest:5", "project:7", "workRequests:byProject:7"},
		},
		{
			name: "создание заявки добавляет уведомления",
			kind: KindWorkRequestCreate,
			ectx: EventContext{ProjectID: uintPtr(7)},
			want: []string{"dashboard", "workRequests:list", "notifications", "project:7", "workRequests:byProject:7"},
		},
		{
			name: "проект",
			kind: KindProjectChange,
			ectx: EventContext{ID: uintPtr(6)},
			want: []string{"dashboard", "projects:list", "project:6", "tasks:byProject:6"},
		},
		{
			name: "задача задевает проект",
			kind: KindTaskChange,
			ectx: EventContext{ID: uintPtr(12), ProjectID: uintPtr(6)},
			want: []string{"task:12", "project:6", "tasks:byProject:6"},
		},
		{
			name: "неизвестный вид",
			kind: Kind("nope"),
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, KeysFor(tt.kind, tt.ectx))
		})
	}
}

// Набор ключей не зависит от места вызова и не мутирует таблицу.
func TestKeysForPure(t *testing.T) {
	ectx := EventContext{ID: uintPtr(1), ProjectID: uintPtr(2)}
	first := KeysFor(KindWorkRequestChange, ectx)
	second := KeysFor(KindWorkRequestChange, ectx)
	require.Equal(t, first, second)

	// Дописывание в результат не должно портить базовую таблицу
	_ = append(first, "мусор")
	require.Equal(t, second, KeysFor(KindWorkRequestChange, ectx))
}

func TestEveryKindHasBaseEntry(t *testing.T) {
	kinds := []Kind{
		KindPaymentChange, KindContractChange, KindBudgetChange,
		KindUserChange, KindWorkRequestChange, KindWorkRequestCreate,
		KindProjectChange, KindTaskChange,
	}
	for _, kind := range kinds {
		_, ok := baseKeys[kind]
		require.True(t, ok, "вид %s без строки в таблице", kind)
	}
	require.Len(t, baseKeys, len(kinds))
}

// Выключенный кэш (nil-клиент) не должен ронять мутации.
func TestInvalidateAfterNilClient(t *testing.T) {
	inv := NewInvalidator(nil)

	var broadcasted []string
	inv.SetBroadcastFunc(func(keys []string) { broadcasted = keys })

	keys := inv.InvalidateAfter(context.Background(), KindPaymentChange, EventContext{ID: uintPtr(1)})
	require.Equal(t, []string{"dashboard", "payments:list", "payment:1"}, keys)
	require.Equal(t, keys, broadcasted)
}

func TestInvalidateAfterEmptySetSkipsBroadcast(t *testing.T) {
	inv := NewInvalidator(nil)

	called := false
	inv.SetBroadcastFunc(func([]string) { called = true })

	keys := inv.InvalidateAfter(context.Background(), KindUserChange, EventContext{})
	require.Empty(t, keys)
	require.False(t, called)
}

func TestOptimisticNilClient(t *testing.T) {
	inv := NewInvalidator(nil)

	prev, err := inv.ApplyOptimistic(context.Background(), "k", func(b []byte) []byte {
		return append(b, 'x')
	})
	require.NoError(t, err)
	require.Nil(t, prev)

	require.NotPanics(t, func() {
		inv.Rollback(context.Background(), "k", nil)
	})
}
