package models

import (
	"time"

	"gorm.io/gorm"
)

// Contract описывает договор между бизнесом и исполнителем.
type Contract struct {
	ID        uint           `gorm:"primaryKey"            json:"ID"`
	CreatedAt time.Time      `                             json:"CreatedAt"`
	UpdatedAt time.Time      `                             json:"UpdatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index"                 json:"DeletedAt"`

	Title       string     `gorm:"column:title"           json:"title"`
	Status      string     `gorm:"column:status"          json:"status"`
	TotalAmount int64      `gorm:"column:total_amount"    json:"totalAmount"` // минорные единицы
	Currency    string     `gorm:"column:currency;size:3" json:"currency"`
	StartDate   *time.Time `gorm:"column:start_date"      json:"startDate,omitempty"`
	EndDate     *time.Time `gorm:"column:end_date"        json:"endDate,omitempty"`

	// Связи
	BusinessID   uint  `gorm:"column:business_id;index"   json:"businessId"`
	Business     *User `gorm:"foreignKey:BusinessID"      json:"business,omitempty"`
	ContractorID uint  `gorm:"column:contractor_id;index" json:"contractorId"`
	Contractor   *User `gorm:"foreignKey:ContractorID"    json:"contractor,omitempty"`

	ProjectID *uint `gorm:"column:project_id;index" json:"projectId,omitempty"`

	Milestones []Milestone `gorm:"foreignKey:ContractID" json:"milestones,omitempty"`
}

func (Contract) TableName() string { return "contracts" }

// Milestone — этап договора, к которому привязываются платежи.
type Milestone struct {
	gorm.Model
	ContractID  uint       `json:"contractId" gorm:"index;not null"`
	Title       string     `json:"title"`
	Amount      int64      `json:"amount"` // минорные единицы
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}
