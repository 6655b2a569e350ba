package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNilRow is returned when a write is attempted without a row.
var ErrNilRow = errors.New("row is required")

// Base holds the single-row operations shared by table repositories. T is a
// GORM model whose primary key is a uuid column named id.
type Base[T any] struct {
	db *gorm.DB
}

func NewBase[T any](db *gorm.DB) Base[T] {
	return Base[T]{db: db}
}

// DB scopes the connection to ctx. A nil ctx returns the raw handle.
func (b Base[T]) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// WithTx rebinds the base to tx; nil keeps the current connection.
func (b Base[T]) WithTx(tx *gorm.DB) Base[T] {
	if tx == nil {
		return b
	}
	return Base[T]{db: tx}
}

// Transaction runs fn with a base bound to a fresh transaction.
func (b Base[T]) Transaction(ctx context.Context, fn func(Base[T]) error) error {
	return b.DB(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(b.WithTx(tx))
	})
}

// FindByID returns gorm.ErrRecordNotFound when no row has id.
func (b Base[T]) FindByID(ctx context.Context, id uuid.UUID) (*T, error) {
	var row T
	if err := b.DB(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (b Base[T]) Insert(ctx context.Context, row *T) error {
	if row == nil {
		return ErrNilRow
	}
	return b.DB(ctx).Create(row).Error
}

// Save writes every column of row.
func (b Base[T]) Save(ctx context.Context, row *T) error {
	if row == nil {
		return ErrNilRow
	}
	return b.DB(ctx).Save(row).Error
}

// DeleteByID reports whether a row was removed.
func (b Base[T]) DeleteByID(ctx context.Context, id uuid.UUID) (bool, error) {
	var zero T
	res := b.DB(ctx).Where("id = ?", id).Delete(&zero)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (b Base[T]) Count(ctx context.Context) (int64, error) {
	var (
		zero  T
		total int64
	)
	if err := b.DB(ctx).Model(&zero).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
