package progress

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"

	"github.com/LuigiEspinosa/digital-library/pkg/books"
	"github.com/LuigiEspinosa/digital-library/pkg/search"
)

func RegisterRoutes(e *echo.Echo, db *bun.DB) {
	h := &handler{
		progressService: NewService(db),
		bookService:     books.NewService(db, search.NewService(db)),
	}

	e.GET("/books/:id/progress", h.retrieve)
	e.PUT("/books/:id/progress", h.upsert)
}
