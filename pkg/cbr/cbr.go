// Package cbr extracts cover art from CBR comic archives by shelling out to
// the unrar binary. RAR decoding has no usable pure-Go story, so a missing
// unrar degrades every CBR to filename-only metadata instead of failing the
// import.
package cbr

import (
	"bytes"
	"context"
	"os/exec"
	"sort"
	"strings"

	"github.com/LuigiEspinosa/digital-library/pkg/mediafile"
)

// ExtractMetadata lists the archive's images with `unrar lb`, streams the
// first page in natural sort order via `unrar p`, and returns it as the
// cover. Any unrar failure degrades to filename-only metadata with a nil
// error.
func ExtractMetadata(ctx context.Context, filePath, fallbackTitle string) (*mediafile.Metadata, error) {
	pages, err := listImages(ctx, filePath)
	if err != nil || len(pages) == 0 {
		return mediafile.Fallback(fallbackTitle), nil
	}

	m := &mediafile.Metadata{Title: fallbackTitle}
	pageCount := len(pages)
	m.PageCount = &pageCount

	data, err := extractEntry(ctx, filePath, pages[0])
	if err == nil && len(data) > 0 {
		m.CoverData = data
		m.CoverExt = mediafile.ImageExt(pages[0])
	}
	return m, nil
}

func listImages(ctx context.Context, filePath string) ([]string, error) {
	// lb lists bare entry names, one per line
	out, err := exec.CommandContext(ctx, "unrar", "lb", filePath).Output()
	if err != nil {
		return nil, err
	}

	var pages []string
	for _, line := range strings.Split(string(out), "\n") {
		name := strings.TrimSpace(line)
		if name != "" && mediafile.IsImageEntry(name) {
			pages = append(pages, name)
		}
	}
	sort.Slice(pages, func(i, j int) bool {
		return mediafile.NaturalLess(pages[i], pages[j])
	})
	return pages, nil
}

func extractEntry(ctx context.Context, filePath, entry string) ([]byte, error) {
	// p prints the entry to stdout; -inul suppresses all chatter
	cmd := exec.CommandContext(ctx, "unrar", "p", "-inul", filePath, entry)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return nil, err
	}
	return stdout.Bytes(), nil
}
