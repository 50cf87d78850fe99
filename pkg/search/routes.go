package search

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers search routes on the given echo instance.
func RegisterRoutes(e *echo.Echo, db *bun.DB) {
	h := &handler{
		searchService: NewService(db),
	}

	e.GET("/search", h.searchBooks)
}
