package models

import (
	"time"

	"github.com/google/uuid"
)

// IconMapping pairs an ingredient keyword with the emoji shown next to it.
type IconMapping struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Keyword   string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_icon_mappings_keyword"`
	Emoji     string    `gorm:"type:varchar(16);not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (IconMapping) TableName() string {
	return "icon_mappings"
}
