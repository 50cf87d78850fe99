package progress

import (
	"time"

	"github.com/uptrace/bun"
)

// ReadingProgress stores one bookmark per (user, book). Position is opaque: a
// CFI string for EPUBs, a page number for everything else.
type ReadingProgress struct {
	bun.BaseModel `bun:"table:reading_progress,alias:rp" json:"-"`

	UserID    string    `bun:"user_id,pk" json:"user_id"`
	BookID    string    `bun:"book_id,pk" json:"book_id"`
	Position  string    `bun:"position" json:"position"`
	UpdatedAt time.Time `bun:"updated_at" json:"updated_at"`
}
