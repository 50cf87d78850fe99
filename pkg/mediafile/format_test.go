package mediafile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		filename string
		format   string
		ok       bool
	}{
		{"book.epub", FormatEPUB, true},
		{"BOOK.EPUB", FormatEPUB, true},
		{"paper.pdf", FormatPDF, true},
		{"comic.cbz", FormatCBZ, true},
		{"comic.cbr", FormatCBR, true},
		{"/some/dir/nested.Epub", FormatEPUB, true},
		{"readme.txt", "", false},
		{"archive.zip", "", false},
		{"image.jpg", "", false},
		{"noextension", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			format, ok := DetectFormat(tt.filename)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.format, format)
		})
	}
}

func TestTitleFromFilename(t *testing.T) {
	assert.Equal(t, "my-document", TitleFromFilename("my-document.epub"))
	assert.Equal(t, "my-document", TitleFromFilename("/inbox/my-document.pdf"))
	assert.Equal(t, "noextension", TitleFromFilename("noextension"))
	assert.Equal(t, "a.b", TitleFromFilename("a.b.cbz"))
}

func TestNaturalLess(t *testing.T) {
	assert.True(t, NaturalLess("page1.jpg", "page2.jpg"))
	assert.True(t, NaturalLess("page2.jpg", "page10.jpg"))
	assert.True(t, NaturalLess("page9.jpg", "page10.jpg"))
	assert.False(t, NaturalLess("page10.jpg", "page2.jpg"))
	assert.True(t, NaturalLess("Page2.jpg", "page010.jpg"))
	assert.True(t, NaturalLess("a.jpg", "b.jpg"))
	assert.False(t, NaturalLess("a.jpg", "a.jpg"))
	assert.True(t, NaturalLess("ch1/page1.jpg", "ch2/page1.jpg"))
}

func TestIsImageEntry(t *testing.T) {
	assert.True(t, IsImageEntry("page1.jpg"))
	assert.True(t, IsImageEntry("art/page1.PNG"))
	assert.True(t, IsImageEntry("cover.webp"))
	assert.False(t, IsImageEntry("__MACOSX/page1.jpg"))
	assert.False(t, IsImageEntry("art/.hidden.jpg"))
	assert.False(t, IsImageEntry("ComicInfo.xml"))
	assert.False(t, IsImageEntry("notes.txt"))
}
