package common

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// contentHashBlockSize is Dropbox's fixed block size for content hashing.
const contentHashBlockSize = 4 * 1024 * 1024

// DropboxContentHash computes the Dropbox content_hash of the reader: the
// SHA-256 of the concatenated SHA-256 digests of each 4 MiB block. The result
// matches the content_hash field Dropbox returns in file metadata, which lets
// the syncer verify identity without downloading.
func DropboxContentHash(r io.Reader) (string, error) {
	overall := sha256.New()
	buf := make([]byte, contentHashBlockSize)

	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			blockSum := sha256.Sum256(buf[:n])
			overall.Write(blockSum[:])
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return "", err
		}
	}

	return hex.EncodeToString(overall.Sum(nil)), nil
}

// FileDropboxContentHash computes the Dropbox content_hash of a local file.
func FileDropboxContentHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return DropboxContentHash(f)
}
