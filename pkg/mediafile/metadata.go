package mediafile

import (
	"strings"
)

// Metadata is the transient record a metadata strategy produces from a
// container file. It is never persisted directly; the import orchestrator
// folds it into a Book row. Title is always populated (the filename stem is
// the floor); everything else is best-effort enrichment.
type Metadata struct {
	Title        string
	Author       string
	Description  string
	ISBN         string
	PublishedAt  string
	Language     string
	Series       string
	SeriesNumber *float64
	Tags         []string
	PageCount    *int

	CoverData []byte
	// CoverExt is the cover's original extension without the dot ("jpg",
	// "png", ...), used only as a decode hint; the generator re-encodes to
	// JPEG regardless.
	CoverExt string
}

// Fallback returns the minimal record every strategy degrades to: a title and
// nothing else.
func Fallback(title string) *Metadata {
	return &Metadata{Title: title}
}

// IsImageEntry reports whether an archive entry name looks like a page or
// cover image. Platform metadata directories (__MACOSX, dotfiles) are
// excluded.
func IsImageEntry(name string) bool {
	if strings.HasPrefix(name, "__MACOSX/") {
		return false
	}
	base := name
	if i := strings.LastIndex(name, "/"); i >= 0 {
		base = name[i+1:]
	}
	if strings.HasPrefix(base, ".") {
		return false
	}
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".jpg") ||
		strings.HasSuffix(lower, ".jpeg") ||
		strings.HasSuffix(lower, ".png") ||
		strings.HasSuffix(lower, ".gif") ||
		strings.HasSuffix(lower, ".webp")
}

// ImageExt returns the lower-cased extension of an image entry without the
// dot, defaulting to jpg.
func ImageExt(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 || i == len(name)-1 {
		return "jpg"
	}
	return strings.ToLower(name[i+1:])
}

// NaturalLess compares two strings with numeric awareness so that "page2"
// sorts before "page10". Comparison is case-insensitive; digit runs are
// compared by value.
func NaturalLess(a, b string) bool {
	a = strings.ToLower(a)
	b = strings.ToLower(b)

	for len(a) > 0 && len(b) > 0 {
		if isDigit(a[0]) && isDigit(b[0]) {
			aNum, aRest := splitLeadingDigits(a)
			bNum, bRest := splitLeadingDigits(b)
			if aNum != bNum {
				return aNum < bNum
			}
			a, b = aRest, bRest
			continue
		}
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func splitLeadingDigits(s string) (uint64, string) {
	var n uint64
	i := 0
	for i < len(s) && isDigit(s[i]) {
		// Saturate instead of overflowing on absurdly long digit runs.
		if n < 1<<53 {
			n = n*10 + uint64(s[i]-'0')
		}
		i++
	}
	return n, s[i:]
}
