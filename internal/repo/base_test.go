package repo

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type widget struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name string    `gorm:"not null"`
}

func newTestBase(t *testing.T) (Base[widget], *gorm.DB) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "repo.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&widget{}))
	return NewBase[widget](conn), conn
}

func TestBaseDBBindsContext(t *testing.T) {
	base, conn := newTestBase(t)

	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "value")
	scoped := base.DB(ctx)
	require.NotNil(t, scoped.Statement)
	assert.Equal(t, ctx, scoped.Statement.Context)

	var noCtx context.Context
	assert.Same(t, conn, base.DB(noCtx))
}

func TestBaseCRUD(t *testing.T) {
	ctx := context.Background()
	base, _ := newTestBase(t)

	w := &widget{ID: uuid.New(), Name: "sieb"}
	require.NoError(t, base.Insert(ctx, w))

	found, err := base.FindByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "sieb", found.Name)

	found.Name = "reibe"
	require.NoError(t, base.Save(ctx, found))
	again, err := base.FindByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "reibe", again.Name)

	total, err := base.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	removed, err := base.DeleteByID(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = base.DeleteByID(ctx, w.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = base.FindByID(ctx, w.ID)
	assert.True(t, IsNotFound(err))
}

func TestBaseRejectsNilRows(t *testing.T) {
	base, _ := newTestBase(t)
	assert.ErrorIs(t, base.Insert(context.Background(), nil), ErrNilRow)
	assert.ErrorIs(t, base.Save(context.Background(), nil), ErrNilRow)
}

func TestBaseTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	base, _ := newTestBase(t)
	boom := errors.New("boom")

	err := base.Transaction(ctx, func(tx Base[widget]) error {
		if err := tx.Insert(ctx, &widget{ID: uuid.New(), Name: "topf"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	total, err := base.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)

	require.NoError(t, base.Transaction(ctx, func(tx Base[widget]) error {
		return tx.Insert(ctx, &widget{ID: uuid.New(), Name: "pfanne"})
	}))
	total, err = base.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
