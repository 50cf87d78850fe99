package progress

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"github.com/LuigiEspinosa/digital-library/pkg/errcodes"
)

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// UpsertProgress writes the bookmark, updating in place when one already
// exists for the (user, book) pair.
func (svc *Service) UpsertProgress(ctx context.Context, p *ReadingProgress) error {
	p.UpdatedAt = time.Now()

	_, err := svc.db.
		NewInsert().
		Model(p).
		On("CONFLICT (user_id, book_id) DO UPDATE").
		Set("position = excluded.position").
		Set("updated_at = excluded.updated_at").
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) RetrieveProgress(ctx context.Context, userID, bookID string) (*ReadingProgress, error) {
	p := &ReadingProgress{}

	err := svc.db.
		NewSelect().
		Model(p).
		Where("rp.user_id = ?", userID).
		Where("rp.book_id = ?", bookID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Reading progress")
		}
		return nil, errors.WithStack(err)
	}

	return p, nil
}
