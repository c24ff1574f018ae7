package models

import "github.com/taskflow-dev/taskflow/internal/types"

type Epic struct {
	BaseModel

	Title       string         `gorm:"not null" json:"title"`
	Description string         `json:"description"`
	Status      types.Status   `gorm:"not null;default:TODO" json:"status"`
	Priority    types.Priority `gorm:"not null;default:MEDIUM" json:"priority"`
	UserID      string         `gorm:"not null;index" json:"userId"`

	// Relationships
	User    User    `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
	Stories []Story `gorm:"foreignKey:EpicID;constraint:OnUpdate:Cascade,OnDelete:SET NULL" json:"stories"`
}
