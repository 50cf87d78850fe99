// Package covers normalizes extracted cover art into uniform catalog
// thumbnails. Every cover comes out as a 300x450 JPEG regardless of source
// format, so list views never reflow on mixed aspect ratios.
package covers

import (
	"bytes"
	"image"
	"os"
	"path/filepath"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"github.com/LuigiEspinosa/digital-library/pkg/config"
	"github.com/LuigiEspinosa/digital-library/pkg/fileutils"
)

type Generator struct {
	root    string
	width   int
	height  int
	quality int
}

func NewGenerator(cfg *config.Config) *Generator {
	return &Generator{
		root:    cfg.CoversDir,
		width:   cfg.CoverWidth,
		height:  cfg.CoverHeight,
		quality: cfg.CoverQuality,
	}
}

// Generate decodes the raw cover bytes, crops-and-scales them to the
// configured thumbnail size anchored at the top edge, and writes the JPEG to
// <root>/<bookID>.jpg. Returns the written path.
func (g *Generator) Generate(bookID string, data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", errors.Wrap(err, "decode cover image")
	}

	thumb := imaging.Fill(img, g.width, g.height, imaging.Top, imaging.Lanczos)

	if err := fileutils.EnsureDir(g.root); err != nil {
		return "", err
	}
	path := filepath.Join(g.root, bookID+".jpg")
	if err := imaging.Save(thumb, path, imaging.JPEGQuality(g.quality)); err != nil {
		os.Remove(path)
		return "", errors.Wrap(err, "save cover thumbnail")
	}
	return path, nil
}

// Remove deletes a generated thumbnail. Missing files are not an error.
func (g *Generator) Remove(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return errors.WithStack(err)
	}
	return nil
}
