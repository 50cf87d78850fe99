package pdf

import (
	"testing"

	"github.com/robinjoseph08/golib/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LuigiEspinosa/digital-library/internal/testgen"
)

func TestExtractMetadata_CorruptFileDegrades(t *testing.T) {
	dir := testgen.TempDir(t, "pdf-test-*")
	path := testgen.WriteFile(t, dir, "broken.pdf", []byte("%PDF-not really"))

	m, err := ExtractMetadata(logger.New(), path, "broken")
	require.NoError(t, err)

	assert.Equal(t, "broken", m.Title)
	assert.Empty(t, m.Author)
	assert.Nil(t, m.PageCount)
	assert.Empty(t, m.CoverData)
}

func TestExtractMetadata_MissingFileDegrades(t *testing.T) {
	m, err := ExtractMetadata(logger.New(), "/nonexistent/file.pdf", "file")
	require.NoError(t, err)

	assert.Equal(t, "file", m.Title)
	assert.Empty(t, m.CoverData)
}
