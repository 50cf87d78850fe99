package importer

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"

	"github.com/LuigiEspinosa/digital-library/pkg/books"
	"github.com/LuigiEspinosa/digital-library/pkg/config"
	"github.com/LuigiEspinosa/digital-library/pkg/covers"
	"github.com/LuigiEspinosa/digital-library/pkg/errcodes"
	"github.com/LuigiEspinosa/digital-library/pkg/fileutils"
	"github.com/LuigiEspinosa/digital-library/pkg/mediafile"
	"github.com/LuigiEspinosa/digital-library/pkg/search"
)

// ImportResult is what every caller of the pipeline gets back: the catalog
// row and whether it already existed.
type ImportResult struct {
	Book      *books.Book `json:"book"`
	Duplicate bool        `json:"duplicate"`
}

type Service struct {
	cfg         *config.Config
	bookService *books.Service
	coverGen    *covers.Generator
}

func NewService(cfg *config.Config, db *bun.DB) *Service {
	return &Service{
		cfg:         cfg,
		bookService: books.NewService(db, search.NewService(db)),
		coverGen:    covers.NewGenerator(cfg),
	}
}

// ImportBook runs the full ingestion pipeline on a fully-written source file:
// detect format, hash for dedup, relocate into permanent storage, extract
// metadata, generate the cover, persist. Metadata and cover failures degrade;
// unsupported formats and I/O or persistence failures abort. The caller keeps
// ownership of sourcePath only when an error is returned before relocation.
func (svc *Service) ImportBook(ctx context.Context, libraryID, sourcePath, originalFilename string) (*ImportResult, error) {
	log := logger.FromContext(ctx).Data(logger.Data{
		"library_id": libraryID,
		"filename":   originalFilename,
	})

	format, ok := mediafile.DetectFormat(originalFilename)
	if !ok {
		return nil, errcodes.UnsupportedFormat(originalFilename)
	}

	if mtype, err := mimetype.DetectFile(sourcePath); err == nil {
		if !contentMatchesFormat(format, mtype) {
			// Mislabeled or truncated file. The extension stays authoritative
			// and extraction degrades on its own, so only flag it.
			log.Warn("file content does not match extension", logger.Data{"format": format, "mimetype": mtype.String()})
		} else {
			log.Info("importing book", logger.Data{"format": format, "mimetype": mtype.String()})
		}
	}

	hash, err := fileutils.HashFile(sourcePath)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	existing, err := svc.bookService.RetrieveBook(ctx, books.RetrieveBookOptions{SHA256: &hash})
	if err == nil {
		log.Info("content already in catalog", logger.Data{"book_id": existing.ID})
		return &ImportResult{Book: existing, Duplicate: true}, nil
	}
	if !errors.Is(err, errcodes.NotFound("Book")) {
		return nil, errors.WithStack(err)
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	bookID := id.String()

	// Atomic on the same filesystem; EXDEV falls back to copy+delete.
	ext := strings.ToLower(filepath.Ext(originalFilename))
	destPath := filepath.Join(svc.cfg.BooksDir, libraryID, bookID+ext)
	if err := fileutils.MoveFile(sourcePath, destPath); err != nil {
		return nil, errors.WithStack(err)
	}

	info, err := os.Stat(destPath)
	if err != nil {
		svc.cleanup(log, destPath, "")
		return nil, errors.WithStack(err)
	}

	meta := extract(ctx, log, format, destPath, mediafile.TitleFromFilename(originalFilename))

	coverPath := ""
	if len(meta.CoverData) > 0 {
		coverPath, err = svc.coverGen.Generate(bookID, meta.CoverData)
		if err != nil {
			log.Err(err).Warn("cover generation failed")
			coverPath = ""
		}
	}

	book := buildBook(bookID, libraryID, format, destPath, coverPath, hash, info.Size(), meta)

	err = svc.bookService.CreateBook(ctx, book)
	if err == nil {
		log.Info("book imported", logger.Data{"book_id": book.ID})
		return &ImportResult{Book: book}, nil
	}

	// Two importers raced the same content past the dedup pre-check; the
	// unique index decided the winner. Hand back theirs and drop ours.
	if errors.Is(err, errcodes.Conflict("Book")) {
		winner, retrieveErr := svc.bookService.RetrieveBook(ctx, books.RetrieveBookOptions{SHA256: &hash})
		if retrieveErr == nil {
			svc.cleanup(log, destPath, coverPath)
			return &ImportResult{Book: winner, Duplicate: true}, nil
		}
	}

	svc.cleanup(log, destPath, coverPath)
	return nil, errors.WithStack(err)
}

// cleanup removes files the pipeline created before a failed persist, so no
// orphan outlives the aborted import. Best effort; failures are logged.
func (svc *Service) cleanup(log logger.Logger, destPath, coverPath string) {
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		log.Err(err).Warn("failed to remove relocated file", logger.Data{"filepath": destPath})
	}
	if coverPath != "" {
		if err := svc.coverGen.Remove(coverPath); err != nil {
			log.Err(err).Warn("failed to remove generated cover", logger.Data{"cover_path": coverPath})
		}
	}
}

// formatMIMEs lists the sniffed content types each extension legitimately
// carries. EPUBs without the leading mimetype entry sniff as plain zip.
var formatMIMEs = map[string][]string{
	mediafile.FormatEPUB: {"application/epub+zip", "application/zip"},
	mediafile.FormatPDF:  {"application/pdf"},
	mediafile.FormatCBZ:  {"application/zip"},
	mediafile.FormatCBR:  {"application/x-rar-compressed"},
}

func contentMatchesFormat(format string, mtype *mimetype.MIME) bool {
	for _, want := range formatMIMEs[format] {
		if mtype.Is(want) {
			return true
		}
	}
	return false
}

func buildBook(bookID, libraryID, format, destPath, coverPath, hash string, size int64, meta *mediafile.Metadata) *books.Book {
	book := &books.Book{
		ID:            bookID,
		LibraryID:     libraryID,
		Title:         meta.Title,
		Format:        format,
		Filepath:      destPath,
		SeriesNumber:  meta.SeriesNumber,
		Tags:          books.TagList(meta.Tags),
		PageCount:     meta.PageCount,
		FilesizeBytes: size,
		SHA256:        hash,
	}
	if coverPath != "" {
		book.CoverPath = &coverPath
	}
	if meta.Author != "" {
		book.Author = &meta.Author
	}
	if meta.Description != "" {
		book.Description = &meta.Description
	}
	if meta.Series != "" {
		book.Series = &meta.Series
	}
	if meta.ISBN != "" {
		book.ISBN = &meta.ISBN
	}
	if meta.PublishedAt != "" {
		book.PublishedAt = &meta.PublishedAt
	}
	if meta.Language != "" {
		book.Language = &meta.Language
	}
	return book
}
