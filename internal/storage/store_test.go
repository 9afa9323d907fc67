package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveReturnsServableURL(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir, "/files/")
	require.NoError(t, err)

	url, err := s.Save("report.pdf", strings.NewReader("content"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/files/"))
	assert.True(t, strings.HasSuffix(url, "_report.pdf"))

	stored := strings.TrimPrefix(url, "/files/")
	data, err := os.ReadFile(filepath.Join(dir, stored))
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))
}

func TestSaveRejectsOversizedBlob(t *testing.T) {
	s, err := NewStore(t.TempDir(), "/files")
	require.NoError(t, err)

	big := bytes.NewReader(make([]byte, MaxUploadSize+1))
	_, err = s.Save("big.bin", big)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestSanitizeStripsPathTricks(t *testing.T) {
	assert.Equal(t, "passwd", sanitize("../../etc/passwd"))
	assert.Equal(t, "notes.txt", sanitize("c:\\temp\\notes.txt"))
	assert.Equal(t, "file", sanitize(""))
	assert.Equal(t, "r_sum_.doc", sanitize("r\u00e9sum\u00e9.doc"))
}
