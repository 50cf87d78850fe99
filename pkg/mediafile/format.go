package mediafile

import (
	"path/filepath"
	"strings"
)

// Format is the closed set of catalog formats.
const (
	FormatEPUB = "epub"
	FormatPDF  = "pdf"
	FormatCBZ  = "cbz"
	FormatCBR  = "cbr"
	// FormatImages exists for bare image folders. No extraction strategy is
	// registered for it; books carrying it fall back to filename-only
	// metadata. DetectFormat never produces it.
	FormatImages = "images"
)

var formatsByExtension = map[string]string{
	".epub": FormatEPUB,
	".pdf":  FormatPDF,
	".cbz":  FormatCBZ,
	".cbr":  FormatCBR,
}

// DetectFormat maps a filename extension to a supported book format. It is
// the sole gate for "is this file ingestible": callers must reject files it
// doesn't recognize before touching the rest of the pipeline. Pure function,
// case-insensitive, no I/O.
func DetectFormat(filename string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	format, ok := formatsByExtension[ext]
	return format, ok
}

// TitleFromFilename derives the fallback title: the filename stem.
func TitleFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
