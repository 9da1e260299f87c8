package sync

import (
	"github.com/notewind/syncagent/internal/common"
	"github.com/notewind/syncagent/internal/models"
)

// hashFunc computes the content hash of one side's file using the named
// algorithm. Injected so the decision logic stays testable without I/O.
type hashFunc func(kind models.HashKind) (string, error)

// decideSkip reports whether a transfer can be skipped because both sides
// already hold identical content. The size check runs first so a hash is
// never computed for files whose sizes disagree; when sizes agree and the
// remote side exposes a checksum, the local hash is always computed, since
// size equality alone is not sufficient evidence of identical content. A hash
// failure fails open toward transferring, never toward skipping.
func decideSkip(localSize int64, remote *models.RemoteFileInfo, localHash hashFunc) (bool, error) {
	if remote == nil || remote.IsDirectory {
		return false, nil
	}
	if localSize != remote.Size {
		return false, nil
	}
	if remote.ContentHash == "" {
		// Backend exposes no checksum; size equality is the best evidence
		// available.
		return true, nil
	}

	local, err := localHash(remote.HashKind)
	if err != nil {
		return false, err
	}
	return local == remote.ContentHash, nil
}

// localFileHash returns a hashFunc over the local file at path.
func localFileHash(path string) hashFunc {
	return func(kind models.HashKind) (string, error) {
		switch kind {
		case models.HashDropbox:
			return common.FileDropboxContentHash(path)
		default:
			return common.FileMD5(path)
		}
	}
}
