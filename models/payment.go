package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment представляет одно движение денег по договору и его этапу.
// Суммы храним в минорных единицах (центах), чтобы не терять копейки
// на плавающей точке.
type Payment struct {
	gorm.Model
	ContractID  uint   `json:"contractId" gorm:"index;not null"`
	Contract    *Contract
	MilestoneID uint   `json:"milestoneId" gorm:"index"`
	Amount      int64  `json:"amount" gorm:"not null"`
	Currency    string `json:"currency" gorm:"size:3;not null"`

	// Три независимых сигнала статуса. Канонический статус по ним
	// каждый раз вычисляется заново при чтении (payments.Reconcile),
	// производное значение в БД не сохраняем.
	LocalStatus    string  `json:"localStatus"`
	IntentStatus   *string `json:"intentStatus"`
	TransferStatus *string `json:"transferStatus"`

	// Идентификатор платежа у провайдера и ключ идемпотентности,
	// с которым он был создан
	ExternalID     string `json:"externalId" gorm:"index"`
	IdempotencyKey string `json:"-" gorm:"size:64"`
}

func (Payment) TableName() string { return "payments" }

// LastStatusAt возвращает время последнего изменения записи —
// используется в выгрузках и журналах сверки.
func (p Payment) LastStatusAt() time.Time { return p.UpdatedAt }
