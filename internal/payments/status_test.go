package payments

import (
	"testing"

	"talentbridge/models"

	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestReconcilePriority(t *testing.T) {
	tests := []struct {
		name     string
		local    string
		intent   *string
		transfer *string
		want     string
	}{
		{
			name:     "успешный transfer побеждает всё",
			local:    "pending",
			intent:   strPtr("requires_action"),
			transfer: strPtr("succeeded"),
			want:     StatePaid,
		},
		{
			name:     "успешный transfer при пустом intent",
			local:    "failed",
			transfer: strPtr("succeeded"),
			want:     StatePaid,
		},
		{
			name:   "intent processing",
			local:  "pending",
			intent: strPtr("processing"),
			want:   StateProcessing,
		},
		{
			name:   "intent succeeded без transfer — деньги еще не у исполнителя",
			local:  "pending",
			intent: strPtr("succeeded"),
			want:   StateProcessing,
		},
		{
			name:   "intent requires_action",
			local:  "pending",
			intent: strPtr("requires_action"),
			want:   StateIncomplete,
		},
		{
			name:   "intent canceled",
			local:  "pending",
			intent: strPtr("canceled"),
			want:   StateIncomplete,
		},
		{
			name:  "локальный completed без сигналов провайдера",
			local: "completed",
			want:  StatePaid,
		},
		{
			name:  "локальный статус проходит насквозь",
			local: "pending",
			want:  "pending",
		},
		{
			name:   "неизвестный intent не перебивает локальный статус",
			local:  "draft",
			intent: strPtr("something_new"),
			want:   "draft",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := models.Payment{
				LocalStatus:    tt.local,
				IntentStatus:   tt.intent,
				TransferStatus: tt.transfer,
			}
			require.Equal(t, tt.want, Reconcile(p))
		})
	}
}

// Тотальность: любая комбинация строк дает результат без паники.
func TestReconcileTotal(t *testing.T) {
	statuses := []*string{nil, strPtr(""), strPtr("succeeded"), strPtr("processing"),
		strPtr("requires_payment_method"), strPtr("garbage"), strPtr("\x00\xff")}
	locals := []string{"", "pending", "completed", "какой-то статус", "\n"}

	for _, local := range locals {
		for _, intent := range statuses {
			for _, transfer := range statuses {
				p := models.Payment{LocalStatus: local, IntentStatus: intent, TransferStatus: transfer}
				require.NotPanics(t, func() { Reconcile(p) })
			}
		}
	}
}

// Успешный transfer дает paid независимо от остальных сигналов.
func TestReconcileTransferAlwaysWins(t *testing.T) {
	intents := []*string{nil, strPtr("succeeded"), strPtr("canceled"), strPtr("requires_action")}
	locals := []string{"", "pending", "failed", "completed"}

	for _, local := range locals {
		for _, intent := range intents {
			p := models.Payment{
				LocalStatus:    local,
				IntentStatus:   intent,
				TransferStatus: strPtr("succeeded"),
			}
			require.Equal(t, StatePaid, Reconcile(p))
		}
	}
}

func TestApplyRailUpdate(t *testing.T) {
	t.Run("повторная доставка того же события идемпотентна", func(t *testing.T) {
		p := models.Payment{LocalStatus: "pending"}
		require.NoError(t, ApplyRailUpdate(&p, strPtr("processing"), nil))
		first := Reconcile(p)
		require.NoError(t, ApplyRailUpdate(&p, strPtr("processing"), nil))
		require.Equal(t, first, Reconcile(p))
	})

	t.Run("оплаченный платеж не уводится из терминального состояния", func(t *testing.T) {
		p := models.Payment{LocalStatus: "pending", TransferStatus: strPtr("succeeded")}
		err := ApplyRailUpdate(&p, nil, strPtr("failed"))
		require.ErrorIs(t, err, ErrInvalidStateTransition)
		// Сигналы не изменены
		require.Equal(t, "succeeded", *p.TransferStatus)
		require.Equal(t, StatePaid, Reconcile(p))
	})

	t.Run("обновление, не меняющее канонический paid, допускается", func(t *testing.T) {
		p := models.Payment{LocalStatus: "pending", TransferStatus: strPtr("succeeded")}
		require.NoError(t, ApplyRailUpdate(&p, strPtr("succeeded"), nil))
		require.Equal(t, StatePaid, Reconcile(p))
	})
}
