package models

import "github.com/taskflow-dev/taskflow/internal/types"

type Task struct {
	BaseModel

	Title       string         `gorm:"not null" json:"title"`
	Description string         `json:"description"`
	Completed   bool           `gorm:"not null;default:false" json:"completed"`
	Status      types.Status   `gorm:"not null;default:TODO" json:"status"`
	Priority    types.Priority `gorm:"not null;default:MEDIUM" json:"priority"`
	StoryID     *string        `gorm:"index" json:"storyId"`
	UserID      string         `gorm:"not null;index" json:"userId"`

	// Relationships
	User  User   `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
	Story *Story `gorm:"foreignKey:StoryID" json:"story"`
}
