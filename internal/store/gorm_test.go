package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSQLiteRepo(t *testing.T) (*GormRepository[testDoc, *testDoc], *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps every query on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	repo := NewGormRepository[testDoc](db, "docs")
	require.NoError(t, repo.Migrate(context.Background()))
	return repo, db
}

func TestGormRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo, _ := newSQLiteRepo(t)

	res, err := repo.Insert(ctx, &testDoc{Email: "a@b.com", Stage: "new"})
	require.NoError(t, err)
	require.NotEmpty(t, res.InsertedID)

	got, err := repo.FindByID(ctx, res.InsertedID)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", got.Email)

	found, err := repo.Find(ctx, Filter{"stage": "new"})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	upd, err := repo.UpdateByID(ctx, res.InsertedID, Fields{"count": 2})
	require.NoError(t, err)
	assert.Equal(t, int64(1), upd.MatchedCount)

	del, err := repo.DeleteByID(ctx, res.InsertedID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), del.DeletedCount)

	_, err = repo.FindByID(ctx, res.InsertedID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormRepositoryDuplicate(t *testing.T) {
	ctx := context.Background()
	repo, _ := newSQLiteRepo(t)

	_, err := repo.Insert(ctx, &testDoc{Email: "a@b.com"})
	require.NoError(t, err)
	_, err = repo.Insert(ctx, &testDoc{Email: "a@b.com"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestGormRepositoryConditionalUpdate(t *testing.T) {
	ctx := context.Background()
	repo, _ := newSQLiteRepo(t)

	res, err := repo.Insert(ctx, &testDoc{Email: "a@b.com", Stage: "new"})
	require.NoError(t, err)

	upd, err := repo.UpdateByIDWhere(ctx, res.InsertedID, Filter{"stage": "new"}, Fields{"stage": "done"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), upd.MatchedCount)

	upd, err = repo.UpdateByIDWhere(ctx, res.InsertedID, Filter{"stage": "new"}, Fields{"stage": "done"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), upd.MatchedCount)
}

func TestGormTransactorRollsBack(t *testing.T) {
	ctx := context.Background()
	repo, db := newSQLiteRepo(t)
	tx := NewGormTransactor(db)
	boom := errors.New("boom")

	err := tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := repo.Insert(ctx, &testDoc{Email: "a@b.com"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	all, err := repo.Find(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, all)

	err = tx.WithTransaction(ctx, func(ctx context.Context) error {
		_, err := repo.Insert(ctx, &testDoc{Email: "a@b.com"})
		return err
	})
	require.NoError(t, err)

	all, err = repo.Find(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
