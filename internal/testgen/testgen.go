// Package testgen builds small but structurally valid book files (EPUB, CBZ)
// with configurable metadata for exercising the import pipeline in tests.
package testgen

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// EPUBOptions configures the generated EPUB file.
type EPUBOptions struct {
	Title         string
	Authors       []string
	Description   string
	ISBN          string
	Date          string
	Language      string // defaults to "en"
	HasCover      bool
	CoverMimeType string // "image/jpeg" or "image/png", defaults to "image/png"
}

// CBZOptions configures the generated CBZ file.
type CBZOptions struct {
	Title        string
	Series       string
	SeriesNumber *float64
	Writer       string
	Genre        string
	LanguageISO  string
	PageCount    int      // defaults to 3, ignored when PageNames is set
	PageNames    []string // explicit entry names, in zip order
	HasComicInfo bool
	ImageFormat  string // "png" or "jpeg", defaults to "png"
	JunkEntries  []string
}

// TempDir creates a temporary directory and registers cleanup.
func TempDir(t *testing.T, pattern string) string {
	t.Helper()
	dir, err := os.MkdirTemp("", pattern)
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() {
		os.RemoveAll(dir)
	})
	return dir
}

// WriteFile creates a file with the given content in the specified directory
// and returns its full path.
func WriteFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
	return path
}

// FileExists reports whether a file exists at the given path.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// GenerateImage encodes a 100x100 solid-color image in the given mime type.
func GenerateImage(t *testing.T, mimeType string) []byte {
	t.Helper()
	return GenerateImageColor(t, mimeType, color.RGBA{0, 100, 200, 255})
}

// GenerateImageColor encodes a 100x100 image filled with c.
func GenerateImageColor(t *testing.T, mimeType string, c color.RGBA) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	switch mimeType {
	case "image/jpeg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
			t.Fatalf("failed to encode JPEG: %v", err)
		}
	default:
		if err := png.Encode(&buf, img); err != nil {
			t.Fatalf("failed to encode PNG: %v", err)
		}
	}
	return buf.Bytes()
}

// PageColor derives a deterministic fill color from a page name. Archive
// pages are generated with it, so a test can tell which page a decoded image
// came from.
func PageColor(name string) color.RGBA {
	h := uint32(2166136261)
	for i := 0; i < len(name); i++ {
		h ^= uint32(name[i])
		h *= 16777619
	}
	return color.RGBA{uint8(h >> 16), uint8(h >> 8), uint8(h), 255}
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	for _, r := range s {
		switch r {
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '&':
			buf.WriteString("&amp;")
		case '"':
			buf.WriteString("&quot;")
		case '\'':
			buf.WriteString("&apos;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}
