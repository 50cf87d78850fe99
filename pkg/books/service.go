package books

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"

	"github.com/LuigiEspinosa/digital-library/pkg/errcodes"
	"github.com/LuigiEspinosa/digital-library/pkg/search"
)

type RetrieveBookOptions struct {
	ID     *string
	SHA256 *string
}

type ListBooksOptions struct {
	LibraryID *string
	Format    *string
	Limit     *int
	Offset    *int
}

type Service struct {
	db            *bun.DB
	searchService *search.Service
}

func NewService(db *bun.DB, searchService *search.Service) *Service {
	return &Service{db: db, searchService: searchService}
}

// CreateBook inserts the catalog row and its FTS entry in one transaction. A
// unique constraint hit on sha256 or filepath surfaces as a conflict so the
// importer can requery for the winning row.
func (svc *Service) CreateBook(ctx context.Context, book *Book) error {
	if book.ID == "" {
		id, err := uuid.NewRandom()
		if err != nil {
			return errors.WithStack(err)
		}
		book.ID = id.String()
	}
	if book.CreatedAt.IsZero() {
		book.CreatedAt = time.Now()
	}

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.
			NewInsert().
			Model(book).
			Returning("*").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		return svc.searchService.Index(ctx, tx, searchEntry(book))
	})
	if err != nil {
		if isUniqueViolation(err) {
			return errcodes.Conflict("Book")
		}
		return errors.WithStack(err)
	}

	return nil
}

func (svc *Service) RetrieveBook(ctx context.Context, opts RetrieveBookOptions) (*Book, error) {
	book := &Book{}

	q := svc.db.
		NewSelect().
		Model(book).
		Column("b.*")

	if opts.ID != nil {
		q = q.Where("b.id = ?", *opts.ID)
	}
	if opts.SHA256 != nil {
		q = q.Where("b.sha256 = ?", *opts.SHA256)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}

	return book, nil
}

func (svc *Service) ListBooks(ctx context.Context, opts ListBooksOptions) ([]*Book, int, error) {
	books := []*Book{}

	q := svc.db.
		NewSelect().
		Model(&books).
		Column("b.*").
		Order("b.title ASC")

	if opts.LibraryID != nil {
		q = q.Where("b.library_id = ?", *opts.LibraryID)
	}
	if opts.Format != nil {
		q = q.Where("b.format = ?", *opts.Format)
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return books, total, nil
}

// DeleteBook removes the row and its FTS entry in one transaction, then
// best-effort removes the stored file and cover from disk. Disk failures are
// logged, not returned: the catalog row is already gone.
func (svc *Service) DeleteBook(ctx context.Context, book *Book) error {
	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.
			NewDelete().
			Model((*Book)(nil)).
			Where("id = ?", book.ID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return errors.WithStack(err)
		}
		if affected == 0 {
			return errcodes.NotFound("Book")
		}

		return svc.searchService.Deindex(ctx, tx, book.ID)
	})
	if err != nil {
		return errors.WithStack(err)
	}

	log := logger.FromContext(ctx)
	if err := os.Remove(book.Filepath); err != nil && !os.IsNotExist(err) {
		log.Err(err).Warn("failed to remove book file", logger.Data{"filepath": book.Filepath})
	}
	if book.CoverPath != nil {
		if err := os.Remove(*book.CoverPath); err != nil && !os.IsNotExist(err) {
			log.Err(err).Warn("failed to remove cover file", logger.Data{"cover_path": *book.CoverPath})
		}
	}

	return nil
}

func searchEntry(book *Book) *search.IndexEntry {
	entry := &search.IndexEntry{
		BookID:    book.ID,
		LibraryID: book.LibraryID,
		Title:     book.Title,
		Tags:      book.Tags,
	}
	if book.Author != nil {
		entry.Author = *book.Author
	}
	if book.Description != nil {
		entry.Description = *book.Description
	}
	if book.Series != nil {
		entry.Series = *book.Series
	}
	return entry
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
