// Package cbz extracts metadata and cover art from CBZ comic archives. A CBZ
// is a zip of page images; the cover is the first page in natural sort order.
// When a ComicInfo.xml is present its fields enrich the record.
package cbz

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/LuigiEspinosa/digital-library/pkg/mediafile"
)

type comicInfo struct {
	Title       string `xml:"Title"`
	Series      string `xml:"Series"`
	Number      string `xml:"Number"`
	Writer      string `xml:"Writer"`
	Summary     string `xml:"Summary"`
	Genre       string `xml:"Genre"`
	LanguageISO string `xml:"LanguageISO"`
	PageCount   int    `xml:"PageCount"`
}

// ExtractMetadata lists the archive's page images, takes the first in natural
// sort order as the cover, and folds in ComicInfo.xml when present. Broken
// archives degrade to filename-only metadata with a nil error.
func ExtractMetadata(filePath, fallbackTitle string) (*mediafile.Metadata, error) {
	r, err := zip.OpenReader(filePath)
	if err != nil {
		return mediafile.Fallback(fallbackTitle), nil
	}
	defer r.Close()

	var pages []*zip.File
	var infoFile *zip.File
	for _, f := range r.File {
		if strings.EqualFold(f.Name, "ComicInfo.xml") {
			infoFile = f
			continue
		}
		if mediafile.IsImageEntry(f.Name) {
			pages = append(pages, f)
		}
	}
	if len(pages) == 0 {
		return mediafile.Fallback(fallbackTitle), nil
	}
	sort.Slice(pages, func(i, j int) bool {
		return mediafile.NaturalLess(pages[i].Name, pages[j].Name)
	})

	m := &mediafile.Metadata{Title: fallbackTitle}
	pageCount := len(pages)
	m.PageCount = &pageCount

	if data := readEntry(pages[0]); data != nil {
		m.CoverData = data
		m.CoverExt = mediafile.ImageExt(pages[0].Name)
	}

	if infoFile != nil {
		applyComicInfo(m, infoFile)
	}
	return m, nil
}

func applyComicInfo(m *mediafile.Metadata, f *zip.File) {
	data := readEntry(f)
	if data == nil {
		return
	}
	var info comicInfo
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	if err := dec.Decode(&info); err != nil {
		return
	}

	if t := strings.TrimSpace(info.Title); t != "" {
		m.Title = t
	}
	m.Series = strings.TrimSpace(info.Series)
	if n, err := strconv.ParseFloat(strings.TrimSpace(info.Number), 64); err == nil {
		m.SeriesNumber = &n
	}
	m.Author = strings.TrimSpace(info.Writer)
	m.Description = strings.TrimSpace(info.Summary)
	m.Language = strings.TrimSpace(info.LanguageISO)
	for _, genre := range strings.Split(info.Genre, ",") {
		if g := strings.TrimSpace(genre); g != "" {
			m.Tags = append(m.Tags, g)
		}
	}
	if info.PageCount > 0 {
		count := info.PageCount
		m.PageCount = &count
	}
}

func readEntry(f *zip.File) []byte {
	rc, err := f.Open()
	if err != nil {
		return nil
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil
	}
	return data
}
