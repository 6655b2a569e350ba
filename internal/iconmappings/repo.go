package iconmappings

import (
	"context"

	"github.com/google/uuid"
	"github.com/zauberjournal/journal-api/internal/repo"
	"github.com/zauberjournal/journal-api/pkg/db/models"
	"gorm.io/gorm"
)

// Repository persists icon mappings.
type Repository struct {
	base repo.Base[models.IconMapping]
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase[models.IconMapping](db)}
}

// List returns every mapping oldest first, keyword breaking ties.
func (r *Repository) List(ctx context.Context) ([]models.IconMapping, error) {
	var rows []models.IconMapping
	err := r.base.DB(ctx).
		Order("created_at ASC").
		Order("keyword ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.IconMapping, error) {
	return r.base.FindByID(ctx, id)
}

func (r *Repository) Create(ctx context.Context, m *models.IconMapping) error {
	return r.base.Insert(ctx, m)
}

func (r *Repository) Update(ctx context.Context, m *models.IconMapping) error {
	return r.base.Save(ctx, m)
}

// Delete reports whether a row existed.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.base.DeleteByID(ctx, id)
}
