package models

import (
	"time"

	"gorm.io/gorm"
)

// Project группирует договоры и задачи одного бизнеса.
type Project struct {
	gorm.Model
	Name       string `json:"name"`
	Status     string `json:"status" gorm:"default:'active'"`
	BusinessID uint   `json:"businessId" gorm:"index"`
	Tasks      []Task `json:"tasks,omitempty" gorm:"foreignKey:ProjectID"`
}

func (Project) TableName() string { return "projects" }

// Task — отдельная задача внутри проекта.
type Task struct {
	gorm.Model
	ProjectID  uint       `json:"projectId" gorm:"index;not null"`
	Title      string     `json:"title"`
	Status     string     `json:"status" gorm:"default:'todo'"`
	AssigneeID *uint      `json:"assigneeId,omitempty"`
	DueDate    *time.Time `json:"dueDate,omitempty"`
}
