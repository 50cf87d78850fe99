package importer

import (
	"context"

	"github.com/robinjoseph08/golib/logger"

	"github.com/LuigiEspinosa/digital-library/pkg/cbr"
	"github.com/LuigiEspinosa/digital-library/pkg/cbz"
	"github.com/LuigiEspinosa/digital-library/pkg/epub"
	"github.com/LuigiEspinosa/digital-library/pkg/mediafile"
	"github.com/LuigiEspinosa/digital-library/pkg/pdf"
)

// extract dispatches to the per-format metadata strategy. Adding a format
// means adding a case here plus its strategy package. Every strategy degrades
// to filename-only metadata on its own; a format with no strategy degrades
// here.
func extract(ctx context.Context, log logger.Logger, format, filePath, fallbackTitle string) *mediafile.Metadata {
	var m *mediafile.Metadata
	var err error

	switch format {
	case mediafile.FormatEPUB:
		m, err = epub.ExtractMetadata(filePath, fallbackTitle)
	case mediafile.FormatPDF:
		m, err = pdf.ExtractMetadata(log, filePath, fallbackTitle)
	case mediafile.FormatCBZ:
		m, err = cbz.ExtractMetadata(filePath, fallbackTitle)
		// comics keep the filename as display title; ComicInfo feeds the
		// other fields
		if err == nil {
			m.Title = fallbackTitle
		}
	case mediafile.FormatCBR:
		m, err = cbr.ExtractMetadata(ctx, filePath, fallbackTitle)
	default:
		return mediafile.Fallback(fallbackTitle)
	}
	if err != nil {
		log.Data(logger.Data{"filepath": filePath, "format": format}).Err(err).Warn("metadata extraction failed")
		return mediafile.Fallback(fallbackTitle)
	}
	return m
}
