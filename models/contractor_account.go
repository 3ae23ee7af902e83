package models

import "gorm.io/gorm"

// ContractorAccount — внешний счет исполнителя у платежного провайдера.
// Создается один раз при онбординге; повторное создание запрещено,
// иначе провайдер заведет дубликат получателя.
type ContractorAccount struct {
	gorm.Model
	ContractorID      uint   `json:"contractorId" gorm:"uniqueIndex:idx_contractor_rail"`
	Contractor        *User  `json:"contractor,omitempty" gorm:"foreignKey:ContractorID"`
	Rail              string `json:"rail" gorm:"uniqueIndex:idx_contractor_rail;size:16"`
	ExternalAccountID string `json:"externalAccountId" gorm:"not null"`
	Country           string `json:"country" gorm:"size:2"`
	Currency          string `json:"currency" gorm:"size:3"`
}

func (ContractorAccount) TableName() string { return "contractor_accounts" }
