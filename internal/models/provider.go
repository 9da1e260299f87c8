package models

import (
	"context"
	"errors"
	"fmt"
)

var ErrNotImplemented = errors.New("not implemented")

// ErrUnsupportedProvider wraps a provider identifier no client is registered
// for. The orchestrator converts it into a failure result, never a panic.
type ErrUnsupportedProvider struct {
	Provider string
}

func (e *ErrUnsupportedProvider) Error() string {
	return fmt.Sprintf("unsupported provider: %s", e.Provider)
}

// HashKind identifies the checksum algorithm a provider exposes for remote
// content. The syncer computes the matching local hash when deciding whether
// a same-size file can be skipped.
type HashKind string

const (
	HashNone    HashKind = ""
	HashMD5     HashKind = "md5"
	HashDropbox HashKind = "dropbox" // Dropbox content_hash: SHA-256 over 4 MiB block digests
)

// RemoteFileInfo describes one remote file or folder. ID is provider-native
// (a Drive file id, a Dropbox path_lower, a constructed path for WebDAV) and
// is opaque outside its provider; never compare IDs across providers.
type RemoteFileInfo struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Path         string   `json:"path"`
	Size         int64    `json:"size"`
	ModifiedTime int64    `json:"modifiedTime"` // epoch milliseconds
	IsDirectory  bool     `json:"isDirectory"`
	ParentID     string   `json:"parentId,omitempty"`
	ContentHash  string   `json:"contentHash,omitempty"`
	HashKind     HashKind `json:"hashKind,omitempty"`
}

// ProviderClient is the uniform capability contract every backend adapter
// implements. Instances are initialized per call from a SyncConfig and
// discarded afterwards; no credentials or connections are cached across calls.
//
// Single-file transfer errors are returned, not panicked; the syncer counts
// them into the aggregate without aborting its loop. A provider that does not
// support an operation returns an error wrapping ErrNotImplemented rather
// than failing in an unexpected way.
type ProviderClient interface {
	// Initialize builds the backend client from config.Auth. It performs no
	// network I/O beyond what the SDK constructor requires and is idempotent
	// for repeated calls with the same config. Incomplete auth fails fast
	// with a diagnosable error.
	Initialize(config *SyncConfig) error

	// TestConnection issues one cheap identity or metadata call. Backend
	// failures come back as Success=false with the error text in Message.
	TestConnection(ctx context.Context) ConnectionResult

	// Authenticate returns an OAuth consent URL for providers that need one,
	// and immediate success for credential-based providers.
	Authenticate(ctx context.Context) AuthResult

	// RefreshAuth exchanges a stored refresh token for a new access token.
	// Providers without token expiry return true as a no-op. On failure the
	// previously stored tokens are left untouched.
	RefreshAuth(ctx context.Context) bool

	// UploadFile overwrites the remote file unconditionally; staleness is
	// caught earlier by the diff step.
	UploadFile(ctx context.Context, localPath, remotePath string) error

	// DownloadFile creates local parent directories as needed and writes
	// atomically (write-then-rename).
	DownloadFile(ctx context.Context, remotePath, localPath string) error

	DeleteFile(ctx context.Context, remotePath string) error

	// CreateDirectory succeeds when the directory already exists; create is
	// idempotent by contract.
	CreateDirectory(ctx context.Context, remotePath string) error

	// ListFiles enumerates the immediate children of remotePath.
	ListFiles(ctx context.Context, remotePath string) ([]RemoteFileInfo, error)

	// GetFileInfo returns nil with no error when remotePath does not exist.
	GetFileInfo(ctx context.Context, remotePath string) (*RemoteFileInfo, error)
}
