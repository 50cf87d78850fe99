package search

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// IndexEntry is the denormalized projection of a book that lives in the FTS
// table. Callers build it from whatever book representation they hold.
type IndexEntry struct {
	BookID      string
	LibraryID   string
	Title       string
	Author      string
	Description string
	Tags        []string
	Series      string
}

// Index adds or replaces a book in the FTS index. It runs on the passed
// bun.IDB so callers can keep the index write inside the same transaction as
// the catalog write.
func (svc *Service) Index(ctx context.Context, idb bun.IDB, entry *IndexEntry) error {
	if err := svc.Deindex(ctx, idb, entry.BookID); err != nil {
		return err
	}

	_, err := idb.ExecContext(ctx,
		`INSERT INTO books_fts (book_id, library_id, title, author, description, tags, series)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.BookID,
		entry.LibraryID,
		entry.Title,
		entry.Author,
		entry.Description,
		strings.Join(entry.Tags, " "),
		entry.Series,
	)
	return errors.WithStack(err)
}

// Deindex removes a book from the FTS index.
func (svc *Service) Deindex(ctx context.Context, idb bun.IDB, bookID string) error {
	_, err := idb.NewDelete().
		TableExpr("books_fts").
		Where("book_id = ?", bookID).
		Exec(ctx)
	return errors.WithStack(err)
}

// SearchBooks searches the catalog, optionally scoped to one library.
func (svc *Service) SearchBooks(ctx context.Context, libraryID, query string, limit, offset int) ([]BookSearchResult, int, error) {
	ftsQuery := BuildPrefixQuery(query)
	if ftsQuery == "" {
		return []BookSearchResult{}, 0, nil
	}

	q := svc.db.NewSelect().
		TableExpr("books_fts").
		ColumnExpr("book_id AS id, library_id, title, author, series").
		Where("books_fts MATCH ?", ftsQuery).
		Order("rank").
		Limit(limit).
		Offset(offset)
	if libraryID != "" {
		q = q.Where("library_id = ?", libraryID)
	}

	results := []BookSearchResult{}
	if err := q.Scan(ctx, &results); err != nil {
		return nil, 0, errors.WithStack(err)
	}

	countQ := svc.db.NewSelect().
		TableExpr("books_fts").
		Where("books_fts MATCH ?", ftsQuery)
	if libraryID != "" {
		countQ = countQ.Where("library_id = ?", libraryID)
	}
	total, err := countQ.Count(ctx)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return results, total, nil
}
