package libraries

import (
	"time"

	"github.com/uptrace/bun"
)

type Library struct {
	bun.BaseModel `bun:"table:libraries,alias:l" json:"-"`

	ID          string    `bun:"id,pk" json:"id"`
	CreatedAt   time.Time `bun:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at" json:"updated_at"`
	Name        string    `bun:"name" json:"name"`
	Description *string   `bun:"description" json:"description"`
}
