// Package pdf extracts document info and a first-page render from PDF files.
// pdfcpu reads the info dictionary; pdfium (via its WebAssembly build, so no
// cgo or system library is needed) rasterizes page one for the cover.
package pdf

import (
	"bytes"
	"image/png"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/webassembly"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/robinjoseph08/golib/logger"

	"github.com/LuigiEspinosa/digital-library/pkg/mediafile"
)

var (
	poolOnce sync.Once
	pool     pdfium.Pool
	poolErr  error
)

// instancePool lazily boots the pdfium WebAssembly runtime. Startup costs a
// few hundred milliseconds, so it happens once per process, and only if a PDF
// is actually imported.
func instancePool() (pdfium.Pool, error) {
	poolOnce.Do(func() {
		pool, poolErr = webassembly.Init(webassembly.Config{
			MinIdle:  1,
			MaxIdle:  1,
			MaxTotal: 1,
		})
	})
	return pool, poolErr
}

// ExtractMetadata reads the info dictionary and renders page one as the
// cover. Each half degrades independently: an unparseable info dictionary
// still gets a cover attempt, and a failed render still keeps the info
// fields. A wholly unreadable file degrades to filename-only metadata with a
// nil error.
func ExtractMetadata(log logger.Logger, filePath, fallbackTitle string) (*mediafile.Metadata, error) {
	m := &mediafile.Metadata{Title: fallbackTitle}

	applyInfo(m, filePath)

	if data, err := renderFirstPage(filePath); err != nil {
		log.Data(logger.Data{"filepath": filePath}).Err(err).Warn("pdf cover render failed")
	} else {
		m.CoverData = data
		m.CoverExt = "png"
	}
	return m, nil
}

func applyInfo(m *mediafile.Metadata, filePath string) {
	f, err := os.Open(filePath)
	if err != nil {
		return
	}
	defer f.Close()

	info, err := api.PDFInfo(f, filePath, nil, false, nil)
	if err != nil {
		return
	}
	if t := strings.TrimSpace(info.Title); t != "" {
		m.Title = t
	}
	m.Author = strings.TrimSpace(info.Author)
	if info.PageCount > 0 {
		count := info.PageCount
		m.PageCount = &count
	}
}

func renderFirstPage(filePath string) ([]byte, error) {
	p, err := instancePool()
	if err != nil {
		return nil, err
	}
	instance, err := p.GetInstance(30 * time.Second)
	if err != nil {
		return nil, err
	}
	defer instance.Close()

	doc, err := instance.OpenDocument(&requests.OpenDocument{FilePath: &filePath})
	if err != nil {
		return nil, err
	}
	defer instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{Document: doc.Document})

	res, err := instance.RenderPageInDPI(&requests.RenderPageInDPI{
		DPI: 144,
		Page: requests.Page{
			ByIndex: &requests.PageByIndex{
				Document: doc.Document,
				Index:    0,
			},
		},
	})
	if err != nil {
		return nil, err
	}
	defer res.Cleanup()

	var buf bytes.Buffer
	if err := png.Encode(&buf, res.Result.Image); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
