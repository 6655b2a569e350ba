package iconmappings

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/zauberjournal/journal-api/internal/repo"
	"github.com/zauberjournal/journal-api/pkg/db"
	"github.com/zauberjournal/journal-api/pkg/db/models"
	pkgerrors "github.com/zauberjournal/journal-api/pkg/errors"
	"github.com/zauberjournal/journal-api/pkg/logger"
)

type repository interface {
	List(ctx context.Context) ([]models.IconMapping, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.IconMapping, error)
	Create(ctx context.Context, m *models.IconMapping) error
	Update(ctx context.Context, m *models.IconMapping) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// Invalidator is told whenever the table changes.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// Service manages the keyword to emoji table.
type Service interface {
	List(ctx context.Context) ([]MappingDTO, error)
	PublicIcons(ctx context.Context) ([]PublicIcon, error)
	Create(ctx context.Context, input CreateInput) (*MappingDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*MappingDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo        repository
	invalidator Invalidator
	logg        *logger.Logger
}

// NewService wires icon mapping dependencies. invalidator may be nil.
func NewService(store repository, invalidator Invalidator, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "icon mappings repository required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{repo: store, invalidator: invalidator, logg: logg}, nil
}

func (s *service) List(ctx context.Context) ([]MappingDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list icon mappings")
	}
	out := make([]MappingDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) PublicIcons(ctx context.Context) ([]PublicIcon, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list icon mappings")
	}
	out := make([]PublicIcon, 0, len(rows))
	for _, row := range rows {
		out = append(out, PublicIcon{Keyword: row.Keyword, Emoji: row.Emoji})
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*MappingDTO, error) {
	keyword, err := normalizeKeyword(input.Keyword)
	if err != nil {
		return nil, err
	}
	emoji, err := normalizeEmoji(input.Emoji)
	if err != nil {
		return nil, err
	}

	row := &models.IconMapping{ID: uuid.New(), Keyword: keyword, Emoji: emoji}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, mapWriteError(err, "create icon mapping")
	}

	s.changed(ctx, "created", row)
	return FromModel(row), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*MappingDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mapping id required")
	}
	if input.Keyword == nil && input.Emoji == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}

	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "icon mapping not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load icon mapping")
	}

	if input.Keyword != nil {
		if row.Keyword, err = normalizeKeyword(*input.Keyword); err != nil {
			return nil, err
		}
	}
	if input.Emoji != nil {
		if row.Emoji, err = normalizeEmoji(*input.Emoji); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, row); err != nil {
		return nil, mapWriteError(err, "update icon mapping")
	}

	s.changed(ctx, "updated", row)
	return FromModel(row), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "mapping id required")
	}
	found, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete icon mapping")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "icon mapping not found")
	}

	s.changed(ctx, "deleted", &models.IconMapping{ID: id})
	return nil
}

func (s *service) changed(ctx context.Context, action string, row *models.IconMapping) {
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"mapping_id": row.ID.String(),
		"action":     action,
	})
	s.logg.Info(logCtx, "icon_mapping.changed")
	if s.invalidator != nil {
		s.invalidator.Invalidate(logCtx)
	}
}

func normalizeKeyword(raw string) (string, error) {
	keyword := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case keyword == "":
		return "", validationError("keyword", "is required")
	case utf8.RuneCountInString(keyword) > MaxKeywordLength:
		return "", validationError("keyword", "must be at most 64 characters")
	}
	return keyword, nil
}

func normalizeEmoji(raw string) (string, error) {
	emoji := strings.TrimSpace(raw)
	switch {
	case emoji == "":
		return "", validationError("emoji", "is required")
	case utf8.RuneCountInString(emoji) > MaxEmojiLength:
		return "", validationError("emoji", "must be at most 16 characters")
	}
	return emoji, nil
}

func validationError(field, msg string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(map[string]string{field: msg})
}

func mapWriteError(err error, action string) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "keyword already mapped")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}
