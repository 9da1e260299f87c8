package common

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// referenceContentHash computes the expected digest the slow way, directly
// from the content_hash definition.
func referenceContentHash(data []byte) string {
	overall := sha256.New()
	for len(data) > 0 {
		n := len(data)
		if n > contentHashBlockSize {
			n = contentHashBlockSize
		}
		blockSum := sha256.Sum256(data[:n])
		overall.Write(blockSum[:])
		data = data[n:]
	}
	return hex.EncodeToString(overall.Sum(nil))
}

func TestDropboxContentHashSingleBlock(t *testing.T) {
	data := []byte("a short note about nothing in particular")

	got, err := DropboxContentHash(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, referenceContentHash(data), got)
}

func TestDropboxContentHashMultiBlock(t *testing.T) {
	// Three bytes past one block so the second block digest matters
	data := bytes.Repeat([]byte{0x5a}, contentHashBlockSize+3)

	got, err := DropboxContentHash(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, referenceContentHash(data), got)
}

func TestDropboxContentHashExactBlockBoundary(t *testing.T) {
	data := bytes.Repeat([]byte{0x11}, contentHashBlockSize)

	got, err := DropboxContentHash(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, referenceContentHash(data), got)
}

func TestDropboxContentHashEmpty(t *testing.T) {
	got, err := DropboxContentHash(bytes.NewReader(nil))
	require.NoError(t, err)

	// No blocks at all: the digest over zero block digests
	empty := sha256.New()
	assert.Equal(t, hex.EncodeToString(empty.Sum(nil)), got)
}

func TestFileDropboxContentHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.md")
	data := []byte("# heading\n\nbody text\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	got, err := FileDropboxContentHash(path)
	require.NoError(t, err)
	assert.Equal(t, referenceContentHash(data), got)
}
