package books

import (
	"database/sql/driver"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/uptrace/bun"
)

// TagList stores tags as a JSON array in a TEXT column.
type TagList []string

func (t TagList) Value() (driver.Value, error) {
	if len(t) == 0 {
		return nil, nil
	}
	data, err := json.Marshal([]string(t))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return string(data), nil
}

func (t *TagList) Scan(src interface{}) error {
	if src == nil {
		*t = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return errors.Errorf("books: cannot scan %T into TagList", src)
	}
	return errors.WithStack(json.Unmarshal(data, (*[]string)(t)))
}

type Book struct {
	bun.BaseModel `bun:"table:books,alias:b" json:"-"`

	ID            string    `bun:"id,pk" json:"id"`
	CreatedAt     time.Time `bun:"created_at" json:"created_at"`
	LibraryID     string    `bun:"library_id" json:"library_id"`
	Title         string    `bun:"title" json:"title"`
	Author        *string   `bun:"author" json:"author"`
	Format        string    `bun:"format" json:"format"`
	Filepath      string    `bun:"filepath" json:"filepath"`
	CoverPath     *string   `bun:"cover_path" json:"cover_path"`
	Description   *string   `bun:"description" json:"description"`
	Series        *string   `bun:"series" json:"series"`
	SeriesNumber  *float64  `bun:"series_number" json:"series_number"`
	Tags          TagList   `bun:"tags" json:"tags"`
	ISBN          *string   `bun:"isbn" json:"isbn"`
	PublishedAt   *string   `bun:"published_at" json:"published_at"`
	PageCount     *int      `bun:"page_count" json:"page_count"`
	FilesizeBytes int64     `bun:"filesize_bytes" json:"filesize_bytes"`
	Language      *string   `bun:"language" json:"language"`
	SHA256        string    `bun:"sha256" json:"sha256"`
}
