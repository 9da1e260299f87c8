package sync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	stdsync "sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notewind/syncagent/internal/common"
	"github.com/notewind/syncagent/internal/models"
)

// fakeProvider is an in-memory backend. Remote paths map to file content;
// directories are tracked separately so listings can return them.
type fakeProvider struct {
	mu    stdsync.Mutex
	files map[string][]byte
	dirs  map[string]bool

	failUploads   map[string]bool
	failDownloads map[string]bool
	infoErr       error
	listErr       error

	uploads   []string
	downloads []string
	onUpload  func(remotePath string)
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		files:         make(map[string][]byte),
		dirs:          map[string]bool{"/": true},
		failUploads:   make(map[string]bool),
		failDownloads: make(map[string]bool),
	}
}

func (f *fakeProvider) Initialize(config *models.SyncConfig) error { return nil }

func (f *fakeProvider) TestConnection(ctx context.Context) models.ConnectionResult {
	return models.ConnectionResult{Success: true, Message: "ok"}
}

func (f *fakeProvider) Authenticate(ctx context.Context) models.AuthResult {
	return models.AuthResult{Success: true, Message: "ok"}
}

func (f *fakeProvider) RefreshAuth(ctx context.Context) bool { return true }

func (f *fakeProvider) UploadFile(ctx context.Context, localPath, remotePath string) error {
	f.mu.Lock()
	hook := f.onUpload
	fail := f.failUploads[remotePath]
	f.mu.Unlock()

	if hook != nil {
		hook(remotePath)
	}
	if fail {
		return fmt.Errorf("simulated upload failure for %s", remotePath)
	}

	data, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[remotePath] = data
	f.uploads = append(f.uploads, remotePath)
	return nil
}

func (f *fakeProvider) DownloadFile(ctx context.Context, remotePath, localPath string) error {
	f.mu.Lock()
	fail := f.failDownloads[remotePath]
	data, ok := f.files[remotePath]
	f.mu.Unlock()

	if fail {
		return fmt.Errorf("simulated download failure for %s", remotePath)
	}
	if !ok {
		return fmt.Errorf("remote file not found: %s", remotePath)
	}

	if err := common.AtomicWriteFile(localPath, strings.NewReader(string(data))); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloads = append(f.downloads, remotePath)
	return nil
}

func (f *fakeProvider) DeleteFile(ctx context.Context, remotePath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, remotePath)
	return nil
}

func (f *fakeProvider) CreateDirectory(ctx context.Context, remotePath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dirs[remotePath] = true
	return nil
}

func (f *fakeProvider) ListFiles(ctx context.Context, remotePath string) ([]models.RemoteFileInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listErr != nil {
		return nil, f.listErr
	}

	prefix := remotePath
	if prefix != "/" {
		prefix += "/"
	}

	var out []models.RemoteFileInfo
	for path, data := range f.files {
		if rest, ok := childName(path, prefix); ok {
			out = append(out, models.RemoteFileInfo{
				Name: rest,
				Path: path,
				Size: int64(len(data)),
			})
		}
	}
	for dir := range f.dirs {
		if rest, ok := childName(dir, prefix); ok {
			out = append(out, models.RemoteFileInfo{
				Name:        rest,
				Path:        dir,
				IsDirectory: true,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (f *fakeProvider) GetFileInfo(ctx context.Context, remotePath string) (*models.RemoteFileInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.infoErr != nil {
		return nil, f.infoErr
	}
	data, ok := f.files[remotePath]
	if !ok {
		return nil, nil
	}
	return &models.RemoteFileInfo{
		Name: filepath.Base(remotePath),
		Path: remotePath,
		Size: int64(len(data)),
	}, nil
}

// childName returns the last segment of path if it is a direct child of the
// prefix.
func childName(path, prefix string) (string, bool) {
	if path == strings.TrimSuffix(prefix, "/") {
		return "", false
	}
	if !strings.HasPrefix(path, prefix) {
		return "", false
	}
	rest := strings.TrimPrefix(path, prefix)
	if rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	return rest, true
}

func writeLocal(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestSyncUpAllowLists(t *testing.T) {
	root := t.TempDir()
	writeLocal(t, root, "todo.md", "- buy milk")
	writeLocal(t, root, "journal.md", "dear diary")
	writeLocal(t, root, "export.txt", "not a note")
	writeLocal(t, root, "attachments/scan.md", "scanned note")
	writeLocal(t, root, "projects/idea.md", "never visited")

	provider := newFakeProvider()
	syncer := NewDirectorySyncer(provider, NewReporter(), nil, DefaultOptions())

	totals, err := syncer.SyncDirectory(context.Background(), root, "/notes", models.SyncDirectionLocalToRemote)
	require.NoError(t, err)

	assert.Equal(t, 3, totals.Uploaded)
	assert.Zero(t, totals.Failed)
	assert.Contains(t, provider.files, "/notes/todo.md")
	assert.Contains(t, provider.files, "/notes/journal.md")
	assert.Contains(t, provider.files, "/notes/attachments/scan.md")
	assert.NotContains(t, provider.files, "/notes/export.txt",
		"non-note files must never be uploaded")
	assert.NotContains(t, provider.files, "/notes/projects/idea.md",
		"directories outside the allow-list must never be descended into")
}

func TestSyncUpIdempotence(t *testing.T) {
	root := t.TempDir()
	writeLocal(t, root, "a.md", "alpha")
	writeLocal(t, root, "b.md", "beta")
	writeLocal(t, root, "attachments/c.md", "gamma")

	provider := newFakeProvider()
	syncer := NewDirectorySyncer(provider, NewReporter(), nil, DefaultOptions())

	first, err := syncer.SyncDirectory(context.Background(), root, "/notes", models.SyncDirectionLocalToRemote)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Uploaded)
	assert.Zero(t, first.Skipped)

	second, err := syncer.SyncDirectory(context.Background(), root, "/notes", models.SyncDirectionLocalToRemote)
	require.NoError(t, err)
	assert.Zero(t, second.Uploaded, "an unchanged tree must upload nothing on the second run")
	assert.Equal(t, 3, second.Skipped)
}

func TestSyncUpPartialFailure(t *testing.T) {
	root := t.TempDir()
	provider := newFakeProvider()
	for i := 0; i < 10; i++ {
		writeLocal(t, root, fmt.Sprintf("note%02d.md", i), fmt.Sprintf("note %d", i))
	}
	provider.failUploads["/notes/note02.md"] = true
	provider.failUploads["/notes/note05.md"] = true
	provider.failUploads["/notes/note08.md"] = true

	syncer := NewDirectorySyncer(provider, NewReporter(), nil, DefaultOptions())
	totals, err := syncer.SyncDirectory(context.Background(), root, "/notes", models.SyncDirectionLocalToRemote)
	require.NoError(t, err, "per-file failures must not abort the pass")

	assert.Equal(t, 7, totals.Uploaded)
	assert.Equal(t, 3, totals.Failed)
}

func TestSyncUpCancellation(t *testing.T) {
	root := t.TempDir()
	provider := newFakeProvider()
	for i := 0; i < 10; i++ {
		writeLocal(t, root, fmt.Sprintf("note%02d.md", i), fmt.Sprintf("note %d", i))
	}

	ctx, cancel := context.WithCancel(context.Background())
	uploaded := 0
	provider.onUpload = func(string) {
		uploaded++
		if uploaded == 4 {
			cancel()
		}
	}

	syncer := NewDirectorySyncer(provider, NewReporter(), nil, DefaultOptions())
	totals, err := syncer.SyncDirectory(ctx, root, "/notes", models.SyncDirectionLocalToRemote)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 4, totals.Uploaded,
		"the in-flight file finishes, later files are not started")
	assert.Len(t, provider.uploads, 4)
}

func TestSyncDownAllowLists(t *testing.T) {
	root := t.TempDir()
	provider := newFakeProvider()
	provider.files["/notes/todo.md"] = []byte("- buy milk")
	provider.files["/notes/export.txt"] = []byte("not a note")
	provider.files["/notes/attachments/scan.md"] = []byte("scanned note")
	provider.files["/notes/archive/old.md"] = []byte("never visited")
	provider.dirs["/notes"] = true
	provider.dirs["/notes/attachments"] = true
	provider.dirs["/notes/archive"] = true

	syncer := NewDirectorySyncer(provider, NewReporter(), nil, DefaultOptions())
	totals, err := syncer.SyncDirectory(context.Background(), root, "/notes", models.SyncDirectionRemoteToLocal)
	require.NoError(t, err)

	assert.Equal(t, 2, totals.Downloaded)
	assert.FileExists(t, filepath.Join(root, "todo.md"))
	assert.FileExists(t, filepath.Join(root, "attachments", "scan.md"))
	assert.NoFileExists(t, filepath.Join(root, "export.txt"))
	assert.NoFileExists(t, filepath.Join(root, "archive", "old.md"))
}

func TestSyncDownSkipsIdenticalFiles(t *testing.T) {
	root := t.TempDir()
	writeLocal(t, root, "same.md", "identical")
	writeLocal(t, root, "stale.md", "old content!")

	provider := newFakeProvider()
	provider.files["/notes/same.md"] = []byte("identical")
	provider.files["/notes/stale.md"] = []byte("new content")

	syncer := NewDirectorySyncer(provider, NewReporter(), nil, DefaultOptions())
	totals, err := syncer.SyncDirectory(context.Background(), root, "/notes", models.SyncDirectionRemoteToLocal)
	require.NoError(t, err)

	assert.Equal(t, 1, totals.Skipped)
	assert.Equal(t, 1, totals.Downloaded)

	data, err := os.ReadFile(filepath.Join(root, "stale.md"))
	require.NoError(t, err)
	assert.Equal(t, "new content", string(data))
}

func TestSyncBidirectionalIndependence(t *testing.T) {
	root := t.TempDir()
	writeLocal(t, root, "local-only.md", "written on this machine")

	provider := newFakeProvider()
	provider.files["/notes/remote-only.md"] = []byte("written elsewhere")
	provider.dirs["/notes"] = true

	syncer := NewDirectorySyncer(provider, NewReporter(), nil, DefaultOptions())
	totals, err := syncer.SyncDirectory(context.Background(), root, "/notes", models.SyncDirectionBidirectional)
	require.NoError(t, err)

	assert.Equal(t, 1, totals.Uploaded)
	assert.Equal(t, 1, totals.Downloaded)
	assert.Contains(t, provider.files, "/notes/local-only.md")
	assert.FileExists(t, filepath.Join(root, "remote-only.md"))
}

func TestSyncUpMetadataErrorFailsOpen(t *testing.T) {
	root := t.TempDir()
	writeLocal(t, root, "a.md", "alpha")

	provider := newFakeProvider()
	provider.files["/notes/a.md"] = []byte("alpha")
	provider.infoErr = fmt.Errorf("metadata backend glitch")

	syncer := NewDirectorySyncer(provider, NewReporter(), nil, DefaultOptions())
	totals, err := syncer.SyncDirectory(context.Background(), root, "/notes", models.SyncDirectionLocalToRemote)
	require.NoError(t, err)

	assert.Equal(t, 1, totals.Uploaded,
		"unprovable identity must re-upload, never silently skip")
	assert.Zero(t, totals.Skipped)
}

func TestSyncUpPublishesProgress(t *testing.T) {
	root := t.TempDir()
	writeLocal(t, root, "a.md", "alpha")

	provider := newFakeProvider()
	reporter := NewReporter()
	events, unsubscribe := reporter.Subscribe(16)
	defer unsubscribe()

	syncer := NewDirectorySyncer(provider, reporter, nil, DefaultOptions())
	_, err := syncer.SyncDirectory(context.Background(), root, "/notes", models.SyncDirectionLocalToRemote)
	require.NoError(t, err)

	var actions []models.ProgressAction
	for {
		select {
		case event := <-events:
			actions = append(actions, event.Action)
			continue
		default:
		}
		break
	}
	assert.Contains(t, actions, models.ProgressActionCompare)
	assert.Contains(t, actions, models.ProgressActionUpload)
}

func drainEvents(events <-chan models.ProgressEvent) []models.ProgressEvent {
	var out []models.ProgressEvent
	for {
		select {
		case event := <-events:
			out = append(out, event)
		default:
			return out
		}
	}
}

func TestSyncUpProgressCountsPerLevel(t *testing.T) {
	root := t.TempDir()
	writeLocal(t, root, "attachments/scan1.md", "one")
	writeLocal(t, root, "attachments/scan2.md", "two")
	writeLocal(t, root, "attachments/scan3.md", "three")
	writeLocal(t, root, "note.md", "body")

	provider := newFakeProvider()
	reporter := NewReporter()
	events, unsubscribe := reporter.Subscribe(64)
	defer unsubscribe()

	syncer := NewDirectorySyncer(provider, reporter, nil, DefaultOptions())
	_, err := syncer.SyncDirectory(context.Background(), root, "/notes", models.SyncDirectionLocalToRemote)
	require.NoError(t, err)

	for _, event := range drainEvents(events) {
		assert.LessOrEqual(t, event.Processed, event.Total,
			"recursing into a subdirectory must not inflate the level's processed count")
	}
}

func TestSyncUpSkippedFilePublishesCompare(t *testing.T) {
	root := t.TempDir()
	writeLocal(t, root, "same.md", "identical")

	provider := newFakeProvider()
	provider.files["/notes/same.md"] = []byte("identical")

	reporter := NewReporter()
	events, unsubscribe := reporter.Subscribe(16)
	defer unsubscribe()

	syncer := NewDirectorySyncer(provider, reporter, nil, DefaultOptions())
	totals, err := syncer.SyncDirectory(context.Background(), root, "/notes", models.SyncDirectionLocalToRemote)
	require.NoError(t, err)
	require.Equal(t, 1, totals.Skipped)

	for _, event := range drainEvents(events) {
		assert.NotEqual(t, models.ProgressActionUpload, event.Action,
			"a skipped file is a comparison, not an upload")
	}
}
