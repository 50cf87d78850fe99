package importer

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"

	"github.com/LuigiEspinosa/digital-library/pkg/config"
	"github.com/LuigiEspinosa/digital-library/pkg/libraries"
)

func RegisterRoutes(e *echo.Echo, cfg *config.Config, db *bun.DB) {
	h := &handler{
		importService:  NewService(cfg, db),
		libraryService: libraries.NewService(db),
	}

	e.POST("/libraries/:id/books", h.upload)
}
