package progress

import (
	"context"
	"database/sql"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/LuigiEspinosa/digital-library/pkg/books"
	"github.com/LuigiEspinosa/digital-library/pkg/errcodes"
	"github.com/LuigiEspinosa/digital-library/pkg/libraries"
	"github.com/LuigiEspinosa/digital-library/pkg/migrations"
	"github.com/LuigiEspinosa/digital-library/pkg/search"
)

func setupTestDB(t *testing.T) (*bun.DB, *books.Book) {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
	})

	ctx := context.Background()
	library := &libraries.Library{Name: "Test Library"}
	require.NoError(t, libraries.NewService(db).CreateLibrary(ctx, library))

	book := &books.Book{
		LibraryID:     library.ID,
		Title:         "A Book",
		Format:        "epub",
		Filepath:      "/books/x/a.epub",
		FilesizeBytes: 100,
		SHA256:        "hash-x",
	}
	require.NoError(t, books.NewService(db, search.NewService(db)).CreateBook(ctx, book))

	return db, book
}

func TestUpsertProgress(t *testing.T) {
	t.Parallel()
	db, book := setupTestDB(t)
	ctx := context.Background()
	svc := NewService(db)

	first := &ReadingProgress{
		UserID:   "user-1",
		BookID:   book.ID,
		Position: "epubcfi(/6/4!/4/2/2)",
	}
	require.NoError(t, svc.UpsertProgress(ctx, first))

	got, err := svc.RetrieveProgress(ctx, "user-1", book.ID)
	require.NoError(t, err)
	assert.Equal(t, "epubcfi(/6/4!/4/2/2)", got.Position)

	// Same pair updates in place instead of erroring on the primary key.
	second := &ReadingProgress{
		UserID:   "user-1",
		BookID:   book.ID,
		Position: "epubcfi(/6/8!/4/10/1)",
	}
	require.NoError(t, svc.UpsertProgress(ctx, second))

	got, err = svc.RetrieveProgress(ctx, "user-1", book.ID)
	require.NoError(t, err)
	assert.Equal(t, "epubcfi(/6/8!/4/10/1)", got.Position)

	count, err := db.NewSelect().TableExpr("reading_progress").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUpsertProgress_PerUser(t *testing.T) {
	t.Parallel()
	db, book := setupTestDB(t)
	ctx := context.Background()
	svc := NewService(db)

	require.NoError(t, svc.UpsertProgress(ctx, &ReadingProgress{UserID: "user-1", BookID: book.ID, Position: "10"}))
	require.NoError(t, svc.UpsertProgress(ctx, &ReadingProgress{UserID: "user-2", BookID: book.ID, Position: "42"}))

	p1, err := svc.RetrieveProgress(ctx, "user-1", book.ID)
	require.NoError(t, err)
	assert.Equal(t, "10", p1.Position)

	p2, err := svc.RetrieveProgress(ctx, "user-2", book.ID)
	require.NoError(t, err)
	assert.Equal(t, "42", p2.Position)
}

func TestRetrieveProgress_Missing(t *testing.T) {
	t.Parallel()
	db, book := setupTestDB(t)
	ctx := context.Background()

	_, err := NewService(db).RetrieveProgress(ctx, "nobody", book.ID)
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.True(t, errors.As(err, &codeErr))
	assert.Equal(t, "not_found", codeErr.Code)
}
