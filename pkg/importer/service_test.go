package importer

import (
	"archive/zip"
	"context"
	"database/sql"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "image/jpeg"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/LuigiEspinosa/digital-library/internal/testgen"
	"github.com/LuigiEspinosa/digital-library/pkg/config"
	"github.com/LuigiEspinosa/digital-library/pkg/errcodes"
	"github.com/LuigiEspinosa/digital-library/pkg/libraries"
	"github.com/LuigiEspinosa/digital-library/pkg/mediafile"
	"github.com/LuigiEspinosa/digital-library/pkg/migrations"
	"github.com/LuigiEspinosa/digital-library/pkg/search"
)

type testEnv struct {
	cfg     *config.Config
	db      *bun.DB
	svc     *Service
	library *libraries.Library
	inbox   string
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
	})

	cfg := &config.Config{
		BooksDir:     testgen.TempDir(t, "importer-books-*"),
		CoversDir:    testgen.TempDir(t, "importer-covers-*"),
		CoverWidth:   300,
		CoverHeight:  450,
		CoverQuality: 85,
	}

	library := &libraries.Library{Name: "Test Library"}
	require.NoError(t, libraries.NewService(db).CreateLibrary(context.Background(), library))

	return &testEnv{
		cfg:     cfg,
		db:      db,
		svc:     NewService(cfg, db),
		library: library,
		inbox:   testgen.TempDir(t, "importer-inbox-*"),
	}
}

func TestImportBook_EPUB(t *testing.T) {
	t.Parallel()
	env := setupTestEnv(t)
	ctx := context.Background()

	path := testgen.GenerateEPUB(t, env.inbox, "left-hand.epub", testgen.EPUBOptions{
		Title:    "The Left Hand of Darkness",
		Authors:  []string{"Ursula K. Le Guin"},
		ISBN:     "9780441478125",
		HasCover: true,
	})

	result, err := env.svc.ImportBook(ctx, env.library.ID, path, "left-hand.epub")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.Duplicate)

	book := result.Book
	assert.Equal(t, "The Left Hand of Darkness", book.Title)
	require.NotNil(t, book.Author)
	assert.Equal(t, "Ursula K. Le Guin", *book.Author)
	require.NotNil(t, book.ISBN)
	assert.Equal(t, "9780441478125", *book.ISBN)
	assert.Equal(t, "epub", book.Format)
	assert.Greater(t, book.FilesizeBytes, int64(0))
	assert.Len(t, book.SHA256, 64)

	// Source file consumed, stored file exists.
	assert.False(t, testgen.FileExists(path))
	assert.True(t, testgen.FileExists(book.Filepath))

	require.NotNil(t, book.CoverPath)
	assert.True(t, testgen.FileExists(*book.CoverPath))

	// The book lands in the search index.
	_, total, err := search.NewService(env.db).SearchBooks(ctx, env.library.ID, "Darkness", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestImportBook_DedupIdempotence(t *testing.T) {
	t.Parallel()
	env := setupTestEnv(t)
	ctx := context.Background()

	opts := testgen.CBZOptions{PageCount: 2}
	first := testgen.GenerateCBZ(t, env.inbox, "comic-one.cbz", opts)

	res1, err := env.svc.ImportBook(ctx, env.library.ID, first, "comic-one.cbz")
	require.NoError(t, err)
	assert.False(t, res1.Duplicate)

	// Byte-identical content under a different name.
	second := filepath.Join(env.inbox, "comic-two.cbz")
	data, err := os.ReadFile(res1.Book.Filepath)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(second, data, 0o644))

	res2, err := env.svc.ImportBook(ctx, env.library.ID, second, "comic-two.cbz")
	require.NoError(t, err)
	assert.True(t, res2.Duplicate)
	assert.Equal(t, res1.Book.ID, res2.Book.ID)

	count, err := env.db.NewSelect().TableExpr("books").Where("sha256 = ?", res1.Book.SHA256).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestImportBook_FallbackTitle(t *testing.T) {
	t.Parallel()
	env := setupTestEnv(t)
	ctx := context.Background()

	// Not a parseable PDF, so every metadata field degrades to the filename
	// stem.
	path := testgen.WriteFile(t, env.inbox, "my-document.pdf", []byte("%PDF-1.4 garbage"))

	result, err := env.svc.ImportBook(ctx, env.library.ID, path, "my-document.pdf")
	require.NoError(t, err)

	assert.Equal(t, "my-document", result.Book.Title)
	assert.Nil(t, result.Book.Author)
	assert.Nil(t, result.Book.CoverPath)
}

func TestImportBook_UnsupportedExtension(t *testing.T) {
	t.Parallel()
	env := setupTestEnv(t)
	ctx := context.Background()

	path := testgen.WriteFile(t, env.inbox, "readme.txt", []byte("just text"))

	_, err := env.svc.ImportBook(ctx, env.library.ID, path, "readme.txt")
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.True(t, errors.As(err, &codeErr))
	assert.Equal(t, "unsupported_format", codeErr.Code)

	// No catalog row, no stored file, source untouched.
	count, err := env.db.NewSelect().TableExpr("books").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.True(t, testgen.FileExists(path))

	entries, err := os.ReadDir(env.cfg.BooksDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestImportBook_StoredPathInvariant(t *testing.T) {
	t.Parallel()
	env := setupTestEnv(t)
	ctx := context.Background()

	path := testgen.GenerateCBZ(t, env.inbox, "comic.cbz", testgen.CBZOptions{PageCount: 3})

	result, err := env.svc.ImportBook(ctx, env.library.ID, path, "comic.cbz")
	require.NoError(t, err)

	stored := result.Book.Filepath
	assert.True(t, strings.HasPrefix(stored, env.cfg.BooksDir+string(os.PathSeparator)))
	assert.Contains(t, strings.Split(stored, string(os.PathSeparator)), env.library.ID)
	assert.True(t, strings.HasSuffix(stored, ".cbz"))
}

func TestImportBook_CoverFailureResilience(t *testing.T) {
	t.Parallel()
	env := setupTestEnv(t)
	ctx := context.Background()

	// Pages that aren't decodable images: extraction still hands back cover
	// bytes, generation chokes on them, the import must not.
	dir := testgen.TempDir(t, "importer-badcover-*")
	zipPath := filepath.Join(dir, "bad.cbz")
	writeRawCBZ(t, zipPath, map[string][]byte{
		"page1.jpg": []byte("not a real image"),
		"page2.jpg": []byte("also not a real image"),
	})

	result, err := env.svc.ImportBook(ctx, env.library.ID, zipPath, "bad.cbz")
	require.NoError(t, err)

	assert.Nil(t, result.Book.CoverPath)
	assert.True(t, testgen.FileExists(result.Book.Filepath))
}

func TestImportBook_CBZNaturalSortCover(t *testing.T) {
	t.Parallel()
	env := setupTestEnv(t)
	ctx := context.Background()

	path := testgen.GenerateCBZ(t, env.inbox, "pages.cbz", testgen.CBZOptions{
		PageNames: []string{"page10.jpg", "page2.jpg", "page1.jpg"},
	})

	result, err := env.svc.ImportBook(ctx, env.library.ID, path, "pages.cbz")
	require.NoError(t, err)

	require.NotNil(t, result.Book.CoverPath)
	require.NotNil(t, result.Book.PageCount)
	assert.Equal(t, 3, *result.Book.PageCount)

	// The thumbnail must come from page1, not from the zip's first entry.
	f, err := os.Open(*result.Book.CoverPath)
	require.NoError(t, err)
	defer f.Close()
	img, _, err := image.Decode(f)
	require.NoError(t, err)

	expected := testgen.PageColor("page1.jpg")
	b := img.Bounds()
	r, g, bl, _ := img.At(b.Dx()/2, b.Dy()/2).RGBA()
	const tol = 8
	assert.InDelta(t, int(expected.R), int(r>>8), tol)
	assert.InDelta(t, int(expected.G), int(g>>8), tol)
	assert.InDelta(t, int(expected.B), int(bl>>8), tol)
}

func TestContentMatchesFormat(t *testing.T) {
	t.Parallel()
	dir := testgen.TempDir(t, "importer-sniff-*")

	epubPath := testgen.GenerateEPUB(t, dir, "real.epub", testgen.EPUBOptions{Title: "Real"})
	mtype, err := mimetype.DetectFile(epubPath)
	require.NoError(t, err)
	assert.True(t, contentMatchesFormat(mediafile.FormatEPUB, mtype))

	cbzPath := testgen.GenerateCBZ(t, dir, "real.cbz", testgen.CBZOptions{PageCount: 1})
	mtype, err = mimetype.DetectFile(cbzPath)
	require.NoError(t, err)
	assert.True(t, contentMatchesFormat(mediafile.FormatCBZ, mtype))

	fakePath := testgen.WriteFile(t, dir, "fake.pdf", []byte("plain text, not a pdf"))
	mtype, err = mimetype.DetectFile(fakePath)
	require.NoError(t, err)
	assert.False(t, contentMatchesFormat(mediafile.FormatPDF, mtype))
}

func writeRawCBZ(t *testing.T, path string, entries map[string][]byte) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, data := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func TestImportBook_ComicTitleStaysFilename(t *testing.T) {
	t.Parallel()
	env := setupTestEnv(t)
	ctx := context.Background()

	path := testgen.GenerateCBZ(t, env.inbox, "saga-v1.cbz", testgen.CBZOptions{
		Title:        "Some Embedded Title",
		Series:       "Saga",
		Writer:       "Brian K. Vaughan",
		HasComicInfo: true,
		PageCount:    2,
	})

	result, err := env.svc.ImportBook(ctx, env.library.ID, path, "saga-v1.cbz")
	require.NoError(t, err)

	assert.Equal(t, "saga-v1", result.Book.Title)
	require.NotNil(t, result.Book.Series)
	assert.Equal(t, "Saga", *result.Book.Series)
	require.NotNil(t, result.Book.Author)
	assert.Equal(t, "Brian K. Vaughan", *result.Book.Author)
}
