package models

import "github.com/taskflow-dev/taskflow/internal/types"

type Story struct {
	BaseModel

	Title       string         `gorm:"not null" json:"title"`
	Description string         `json:"description"`
	Status      types.Status   `gorm:"not null;default:TODO" json:"status"`
	Priority    types.Priority `gorm:"not null;default:MEDIUM" json:"priority"`
	EpicID      *string        `gorm:"index" json:"epicId"`
	UserID      string         `gorm:"not null;index" json:"userId"`

	// Relationships
	User  User   `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
	Epic  *Epic  `gorm:"foreignKey:EpicID" json:"epic"`
	Tasks []Task `gorm:"foreignKey:StoryID;constraint:OnUpdate:Cascade,OnDelete:SET NULL" json:"tasks"`
}
