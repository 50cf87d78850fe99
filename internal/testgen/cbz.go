package testgen

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// GenerateCBZ creates a valid CBZ file at the specified path with the given
// options. The archive holds page images (and optionally ComicInfo.xml plus
// junk entries like __MACOSX metadata).
func GenerateCBZ(t *testing.T, dir, filename string, opts CBZOptions) string {
	t.Helper()

	path := filepath.Join(dir, filename)

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create CBZ file: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	defer zw.Close()

	imageFormat := opts.ImageFormat
	if imageFormat == "" {
		imageFormat = "png"
	}
	mimeType := "image/png"
	ext := "png"
	if imageFormat == "jpeg" || imageFormat == "jpg" {
		mimeType = "image/jpeg"
		ext = "jpg"
	}

	// A non-nil empty PageNames means "no pages at all".
	pageNames := opts.PageNames
	if pageNames == nil {
		pageCount := opts.PageCount
		if pageCount <= 0 {
			pageCount = 3
		}
		for i := 0; i < pageCount; i++ {
			pageNames = append(pageNames, fmt.Sprintf("%03d.%s", i, ext))
		}
	}

	if opts.HasComicInfo {
		comicInfo := generateComicInfo(opts, len(pageNames))
		if err := writeZipFile(zw, "ComicInfo.xml", []byte(comicInfo)); err != nil {
			t.Fatalf("failed to write ComicInfo.xml: %v", err)
		}
	}

	for _, name := range pageNames {
		imgData := GenerateImageColor(t, mimeType, PageColor(name))
		if err := writeZipFile(zw, name, imgData); err != nil {
			t.Fatalf("failed to write page %s: %v", name, err)
		}
	}

	for _, name := range opts.JunkEntries {
		if err := writeZipFile(zw, name, []byte("junk")); err != nil {
			t.Fatalf("failed to write junk entry %s: %v", name, err)
		}
	}

	return path
}

func generateComicInfo(opts CBZOptions, pageCount int) string {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<ComicInfo>
`)

	if opts.Title != "" {
		buf.WriteString(fmt.Sprintf("  <Title>%s</Title>\n", escapeXML(opts.Title)))
	}
	if opts.Series != "" {
		buf.WriteString(fmt.Sprintf("  <Series>%s</Series>\n", escapeXML(opts.Series)))
	}
	if opts.SeriesNumber != nil {
		if *opts.SeriesNumber == float64(int(*opts.SeriesNumber)) {
			buf.WriteString(fmt.Sprintf("  <Number>%d</Number>\n", int(*opts.SeriesNumber)))
		} else {
			buf.WriteString(fmt.Sprintf("  <Number>%.1f</Number>\n", *opts.SeriesNumber))
		}
	}
	if opts.Writer != "" {
		buf.WriteString(fmt.Sprintf("  <Writer>%s</Writer>\n", escapeXML(opts.Writer)))
	}
	if opts.Genre != "" {
		buf.WriteString(fmt.Sprintf("  <Genre>%s</Genre>\n", escapeXML(opts.Genre)))
	}
	if opts.LanguageISO != "" {
		buf.WriteString(fmt.Sprintf("  <LanguageISO>%s</LanguageISO>\n", escapeXML(opts.LanguageISO)))
	}
	buf.WriteString(fmt.Sprintf("  <PageCount>%d</PageCount>\n", pageCount))

	buf.WriteString("</ComicInfo>")

	return buf.String()
}
