// Package epub extracts catalog metadata and cover art from EPUB containers.
// An EPUB is a zip holding META-INF/container.xml, which points at the OPF
// package document carrying the Dublin Core metadata and manifest.
package epub

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"path"
	"strings"

	"github.com/pkg/errors"

	"github.com/LuigiEspinosa/digital-library/pkg/mediafile"
)

type container struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

type packageDoc struct {
	Metadata struct {
		Titles      []string     `xml:"title"`
		Creators    []string     `xml:"creator"`
		Description string       `xml:"description"`
		Dates       []string     `xml:"date"`
		Languages   []string     `xml:"language"`
		Identifiers []identifier `xml:"identifier"`
		Metas       []meta       `xml:"meta"`
	} `xml:"metadata"`
	Manifest struct {
		Items []manifestItem `xml:"item"`
	} `xml:"manifest"`
}

type identifier struct {
	Scheme string `xml:"scheme,attr"`
	ID     string `xml:"id,attr"`
	Value  string `xml:",chardata"`
}

// isbn returns the identifier's value when anything about it marks it as an
// ISBN: the scheme attribute, the id attribute, or a urn:isbn: value prefix.
// Publishers are inconsistent about which one they use.
func (id identifier) isbn() string {
	v := strings.TrimSpace(id.Value)
	if v == "" {
		return ""
	}
	if strings.EqualFold(id.Scheme, "ISBN") || strings.Contains(strings.ToUpper(id.ID), "ISBN") {
		return v
	}
	if len(v) > len("urn:isbn:") && strings.EqualFold(v[:len("urn:isbn:")], "urn:isbn:") {
		return v[len("urn:isbn:"):]
	}
	return ""
}

type meta struct {
	Name       string `xml:"name,attr"`
	Content    string `xml:"content,attr"`
	Properties string `xml:"properties,attr"`
}

type manifestItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

// ExtractMetadata reads the OPF out of the EPUB at filePath. fallbackTitle is
// used when the OPF carries no title; a structurally broken container
// degrades to filename-only metadata with a nil error.
func ExtractMetadata(filePath, fallbackTitle string) (*mediafile.Metadata, error) {
	r, err := zip.OpenReader(filePath)
	if err != nil {
		return mediafile.Fallback(fallbackTitle), nil
	}
	defer r.Close()

	opfPath, err := rootfilePath(&r.Reader)
	if err != nil {
		return mediafile.Fallback(fallbackTitle), nil
	}
	pkg, err := readPackageDoc(&r.Reader, opfPath)
	if err != nil {
		return mediafile.Fallback(fallbackTitle), nil
	}

	m := &mediafile.Metadata{Title: fallbackTitle}
	if len(pkg.Metadata.Titles) > 0 && strings.TrimSpace(pkg.Metadata.Titles[0]) != "" {
		m.Title = strings.TrimSpace(pkg.Metadata.Titles[0])
	}
	if len(pkg.Metadata.Creators) > 0 {
		m.Author = strings.TrimSpace(pkg.Metadata.Creators[0])
	}
	m.Description = strings.TrimSpace(pkg.Metadata.Description)
	if len(pkg.Metadata.Dates) > 0 {
		m.PublishedAt = strings.TrimSpace(pkg.Metadata.Dates[0])
	}
	if len(pkg.Metadata.Languages) > 0 {
		m.Language = strings.TrimSpace(pkg.Metadata.Languages[0])
	}
	for _, id := range pkg.Metadata.Identifiers {
		if isbn := id.isbn(); isbn != "" {
			m.ISBN = isbn
			break
		}
	}

	if href := coverHref(pkg); href != "" {
		coverPath := path.Join(path.Dir(opfPath), href)
		if data := readEntry(&r.Reader, coverPath); data != nil {
			m.CoverData = data
			m.CoverExt = mediafile.ImageExt(coverPath)
		}
	}
	// The manifest doesn't always declare the cover. Last resort: any image
	// entry in the archive with "cover" in its name.
	if len(m.CoverData) == 0 {
		for _, f := range r.File {
			if !mediafile.IsImageEntry(f.Name) || !strings.Contains(strings.ToLower(f.Name), "cover") {
				continue
			}
			if data := readEntry(&r.Reader, f.Name); data != nil {
				m.CoverData = data
				m.CoverExt = mediafile.ImageExt(f.Name)
			}
			break
		}
	}
	return m, nil
}

// coverHref resolves the cover image's manifest href. EPUB 2 declares it via
// <meta name="cover" content="item-id">; EPUB 3 marks the manifest item with
// properties="cover-image". Failing both, any image item whose name mentions
// "cover" is taken.
func coverHref(pkg *packageDoc) string {
	var coverID string
	for _, mt := range pkg.Metadata.Metas {
		if mt.Name == "cover" && mt.Content != "" {
			coverID = mt.Content
			break
		}
	}
	for _, item := range pkg.Manifest.Items {
		if coverID != "" && item.ID == coverID {
			return item.Href
		}
		if strings.Contains(item.Properties, "cover-image") {
			return item.Href
		}
	}
	for _, item := range pkg.Manifest.Items {
		if strings.HasPrefix(item.MediaType, "image/") &&
			strings.Contains(strings.ToLower(item.Href), "cover") {
			return item.Href
		}
	}
	return ""
}

func rootfilePath(r *zip.Reader) (string, error) {
	data := readEntry(r, "META-INF/container.xml")
	if data == nil {
		return "", errors.New("epub: missing container.xml")
	}
	var c container
	if err := unmarshalXML(data, &c); err != nil {
		return "", err
	}
	if len(c.Rootfiles) == 0 || c.Rootfiles[0].FullPath == "" {
		return "", errors.New("epub: container.xml has no rootfile")
	}
	return c.Rootfiles[0].FullPath, nil
}

func readPackageDoc(r *zip.Reader, opfPath string) (*packageDoc, error) {
	data := readEntry(r, opfPath)
	if data == nil {
		return nil, errors.Errorf("epub: missing package document %s", opfPath)
	}
	var pkg packageDoc
	if err := unmarshalXML(data, &pkg); err != nil {
		return nil, err
	}
	return &pkg, nil
}

func unmarshalXML(data []byte, v interface{}) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	return errors.WithStack(dec.Decode(v))
}

func readEntry(r *zip.Reader, name string) []byte {
	for _, f := range r.File {
		if f.Name != name {
			continue
		}
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
	return nil
}
