package models

import "gorm.io/gorm"

const (
	UserRoleBusiness   = "business"
	UserRoleContractor = "contractor"
)

// User — участник площадки: бизнес или исполнитель.
type User struct {
	gorm.Model
	Email        string `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string `json:"-" gorm:"not null"`
	FullName     string `json:"fullName"`
	CompanyName  string `json:"companyName"`
	Role         string `json:"role" gorm:"size:16;not null"`

	Accounts []ContractorAccount `json:"accounts,omitempty" gorm:"foreignKey:ContractorID"`
}

func (User) TableName() string { return "users" }
