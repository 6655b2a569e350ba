package iconmappings

import (
	"time"

	"github.com/google/uuid"
	"github.com/zauberjournal/journal-api/pkg/db/models"
)

const (
	MaxKeywordLength = 64
	MaxEmojiLength   = 16
)

// MappingDTO is the admin representation of a mapping row.
type MappingDTO struct {
	ID        uuid.UUID `json:"id"`
	Keyword   string    `json:"keyword"`
	Emoji     string    `json:"emoji"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PublicIcon is one entry of the public icon table.
type PublicIcon struct {
	Keyword string `json:"keyword"`
	Emoji   string `json:"emoji"`
}

// CreateInput carries the fields of a new mapping.
type CreateInput struct {
	Keyword string
	Emoji   string
}

// UpdateInput carries a partial update; nil fields are left untouched.
type UpdateInput struct {
	Keyword *string
	Emoji   *string
}

// FromModel maps the persisted row into a DTO.
func FromModel(m *models.IconMapping) *MappingDTO {
	if m == nil {
		return nil
	}
	return &MappingDTO{
		ID:        m.ID,
		Keyword:   m.Keyword,
		Emoji:     m.Emoji,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
