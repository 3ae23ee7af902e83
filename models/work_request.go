package models

import "gorm.io/gorm"

// WorkRequest — заявка бизнеса на подключение исполнителя к проекту.
type WorkRequest struct {
	gorm.Model
	Title        string `json:"title"`
	Description  string `json:"description"`
	Status       string `json:"status" gorm:"default:'open'"`
	BusinessID   uint   `json:"businessId" gorm:"index"`
	ContractorID *uint  `json:"contractorId,omitempty" gorm:"index"`
	ProjectID    *uint  `json:"projectId,omitempty" gorm:"index"`
	Budget       int64  `json:"budget"` // минорные единицы
	Currency     string `json:"currency" gorm:"size:3"`
}

func (WorkRequest) TableName() string { return "work_requests" }
