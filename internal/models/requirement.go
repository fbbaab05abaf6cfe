package models

import (
	"time"

	"gorm.io/datatypes"
)

type Requirement struct {
	ID          uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	ProjectID   uint64          `gorm:"not null;index" json:"project_id"`
	Title       string          `gorm:"type:varchar(200);not null" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	Type        RequirementType `gorm:"type:varchar(32);index;not null" json:"type"`
	Priority    Priority        `gorm:"type:varchar(16);index;not null" json:"priority"`
	SourceType  string          `gorm:"type:varchar(20);index" json:"source_type"`
	IsAnalyzed  bool            `gorm:"not null;default:false" json:"is_analyzed"`
	Metadata    datatypes.JSON  `gorm:"type:json" json:"metadata"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	Project *Project `gorm:"foreignKey:ProjectID" json:"-"`
}

func (Requirement) TableName() string { return "requirements" }
