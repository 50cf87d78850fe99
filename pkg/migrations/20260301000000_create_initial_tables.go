package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`
			CREATE TABLE libraries (
				id TEXT PRIMARY KEY,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				name TEXT NOT NULL,
				description TEXT
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE books (
				id TEXT PRIMARY KEY,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				library_id TEXT NOT NULL REFERENCES libraries (id) ON DELETE CASCADE,
				title TEXT NOT NULL,
				author TEXT,
				format TEXT NOT NULL,
				filepath TEXT NOT NULL,
				cover_path TEXT,
				description TEXT,
				series TEXT,
				series_number REAL,
				tags TEXT,
				isbn TEXT,
				published_at TEXT,
				page_count INTEGER,
				filesize_bytes INTEGER,
				language TEXT,
				sha256 TEXT NOT NULL
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		// sha256 is the system-wide dedup identity; filepath uniqueness keeps
		// two rows from ever claiming the same stored file.
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_books_sha256 ON books (sha256)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_books_filepath ON books (filepath)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_books_library_id ON books (library_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		// Shadow search index, kept in sync with books inside the same
		// transaction as every insert/delete.
		_, err = db.Exec(`
			CREATE VIRTUAL TABLE books_fts USING fts5(
				book_id UNINDEXED,
				library_id UNINDEXED,
				title,
				author,
				description,
				tags,
				series,
				tokenize='porter ascii'
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE reading_progress (
				user_id TEXT NOT NULL,
				book_id TEXT NOT NULL REFERENCES books (id) ON DELETE CASCADE,
				position TEXT NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				PRIMARY KEY (user_id, book_id)
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		return nil
	}

	down := func(_ context.Context, db *bun.DB) error {
		for _, table := range []string{"reading_progress", "books_fts", "books", "libraries"} {
			_, err := db.Exec("DROP TABLE IF EXISTS " + table)
			if err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}

	Migrations.MustRegister(up, down)
}
