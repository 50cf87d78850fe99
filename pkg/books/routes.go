package books

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"

	"github.com/LuigiEspinosa/digital-library/pkg/search"
)

func RegisterRoutes(e *echo.Echo, db *bun.DB) {
	bookService := NewService(db, search.NewService(db))

	h := &handler{
		bookService: bookService,
	}

	e.GET("/books", h.list)
	e.GET("/books/:id", h.retrieve)
	e.GET("/books/:id/file", h.file)
	e.GET("/books/:id/cover", h.cover)
	e.DELETE("/books/:id", h.delete)
}
