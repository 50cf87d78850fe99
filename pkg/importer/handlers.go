package importer

import (
	"io"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/LuigiEspinosa/digital-library/pkg/errcodes"
	"github.com/LuigiEspinosa/digital-library/pkg/libraries"
)

type handler struct {
	importService  *Service
	libraryService *libraries.Service
}

// upload ingests a multipart book file into the library from the URL. The
// part is staged to a temp file first; the pipeline only ever sees
// fully-written files.
func (h *handler) upload(c echo.Context) error {
	ctx := c.Request().Context()
	libraryID := c.Param("id")

	if _, err := h.libraryService.RetrieveLibrary(ctx, libraries.RetrieveLibraryOptions{ID: &libraryID}); err != nil {
		return errors.WithStack(err)
	}

	// Bind params.
	params := UploadBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}
	fh, ok := params.FormFiles["file"]
	if !ok {
		return errcodes.ValidationError(`"file" is required`)
	}

	src, err := fh.Open()
	if err != nil {
		return errors.WithStack(err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "library-upload-*")
	if err != nil {
		return errors.WithStack(err)
	}
	tmpPath := tmp.Name()
	// The pipeline consumes the temp file on success; this covers every
	// earlier exit.
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return errors.WithStack(err)
	}
	if err := tmp.Close(); err != nil {
		return errors.WithStack(err)
	}

	result, err := h.importService.ImportBook(ctx, libraryID, tmpPath, fh.Filename)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, result))
}
