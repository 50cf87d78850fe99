package search

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	searchService *Service
}

func (h *handler) searchBooks(c echo.Context) error {
	ctx := c.Request().Context()

	params := BooksQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	results, total, err := h.searchService.SearchBooks(ctx, params.LibraryID, params.Query, params.Limit, params.Offset)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, &BooksResponse{
		Results: results,
		Total:   total,
	}))
}
