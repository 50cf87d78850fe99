package progress

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/LuigiEspinosa/digital-library/pkg/books"
	"github.com/LuigiEspinosa/digital-library/pkg/errcodes"
)

// Session auth is out of scope; the caller identifies itself with this
// header.
const userIDHeader = "X-User-ID"

type handler struct {
	progressService *Service
	bookService     *books.Service
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	userID := c.Request().Header.Get(userIDHeader)
	if userID == "" {
		return errcodes.ValidationError(`header "X-User-ID" is required`)
	}
	bookID := c.Param("id")

	p, err := h.progressService.RetrieveProgress(ctx, userID, bookID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, p))
}

func (h *handler) upsert(c echo.Context) error {
	ctx := c.Request().Context()

	userID := c.Request().Header.Get(userIDHeader)
	if userID == "" {
		return errcodes.ValidationError(`header "X-User-ID" is required`)
	}
	bookID := c.Param("id")

	// Bind params.
	params := UpsertProgressPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	// 404 before writing a row that references nothing.
	if _, err := h.bookService.RetrieveBook(ctx, books.RetrieveBookOptions{ID: &bookID}); err != nil {
		return errors.WithStack(err)
	}

	p := &ReadingProgress{
		UserID:   userID,
		BookID:   bookID,
		Position: params.Position,
	}
	if err := h.progressService.UpsertProgress(ctx, p); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, p))
}
