package search

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/LuigiEspinosa/digital-library/pkg/migrations"
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func indexEntry(bookID, libraryID, title, author string) *IndexEntry {
	return &IndexEntry{
		BookID:    bookID,
		LibraryID: libraryID,
		Title:     title,
		Author:    author,
	}
}

func TestIndexAndSearch(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()
	svc := NewService(db)

	require.NoError(t, svc.Index(ctx, db, indexEntry("b1", "lib1", "The Left Hand of Darkness", "Ursula K. Le Guin")))
	require.NoError(t, svc.Index(ctx, db, indexEntry("b2", "lib1", "The Dispossessed", "Ursula K. Le Guin")))
	require.NoError(t, svc.Index(ctx, db, indexEntry("b3", "lib2", "Neuromancer", "William Gibson")))

	// Title match
	results, total, err := svc.SearchBooks(ctx, "lib1", "Darkness", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, results, 1)
	assert.Equal(t, "b1", results[0].ID)

	// Author match across a library
	_, total, err = svc.SearchBooks(ctx, "lib1", "Le Guin", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	// Library scoping
	_, total, err = svc.SearchBooks(ctx, "lib1", "Neuromancer", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, total)

	// Unscoped
	_, total, err = svc.SearchBooks(ctx, "", "Neuromancer", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestSearchBooks_PrefixMatch(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()
	svc := NewService(db)

	require.NoError(t, svc.Index(ctx, db, indexEntry("b1", "lib1", "Neuromancer", "William Gibson")))

	_, total, err := svc.SearchBooks(ctx, "lib1", "Neuro", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestSearchBooks_EmptyQuery(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()
	svc := NewService(db)

	results, total, err := svc.SearchBooks(ctx, "lib1", "   ", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, results)
}

func TestIndex_Replaces(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()
	svc := NewService(db)

	require.NoError(t, svc.Index(ctx, db, indexEntry("b1", "lib1", "Old Title", "")))
	require.NoError(t, svc.Index(ctx, db, indexEntry("b1", "lib1", "New Title", "")))

	_, total, err := svc.SearchBooks(ctx, "lib1", "Old", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, total)

	_, total, err = svc.SearchBooks(ctx, "lib1", "New", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	count, err := db.NewSelect().TableExpr("books_fts").Where("book_id = ?", "b1").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDeindex(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()
	svc := NewService(db)

	require.NoError(t, svc.Index(ctx, db, indexEntry("b1", "lib1", "Ephemeral", "")))
	require.NoError(t, svc.Deindex(ctx, db, "b1"))

	_, total, err := svc.SearchBooks(ctx, "lib1", "Ephemeral", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}
