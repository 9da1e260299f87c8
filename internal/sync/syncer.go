package sync

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/notewind/syncagent/internal/common"
	"github.com/notewind/syncagent/internal/models"
)

// Options fixes the allow-lists of one sync pass: which file extensions are
// eligible and which subdirectory names are descended into. Arbitrary nested
// folders and file types are deliberately not synced.
type Options struct {
	Extensions     []string
	AttachmentDirs []string
}

// DefaultOptions covers the note file format and its attachments folder.
func DefaultOptions() Options {
	return Options{
		Extensions:     []string{".md"},
		AttachmentDirs: []string{"attachments"},
	}
}

func (o Options) allowsFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return slices.Contains(o.Extensions, ext)
}

func (o Options) allowsDir(name string) bool {
	return slices.Contains(o.AttachmentDirs, strings.ToLower(name))
}

// Totals aggregates the per-file results of a sync pass. Counts accumulate
// monotonically at every recursion depth.
type Totals struct {
	Uploaded   int
	Downloaded int
	Failed     int
	Skipped    int
}

func (t *Totals) add(other Totals) {
	t.Uploaded += other.Uploaded
	t.Downloaded += other.Downloaded
	t.Failed += other.Failed
	t.Skipped += other.Skipped
}

// DirectorySyncer walks a local root and a remote root in lock-step, deciding
// per file whether to skip or transfer. Transfers are sequential within a
// pass, which bounds concurrent backend connections to one and keeps rate
// limiting trivial.
type DirectorySyncer struct {
	client   models.ProviderClient
	reporter *Reporter
	enc      models.EncryptionImpl
	opts     Options
}

func NewDirectorySyncer(client models.ProviderClient, reporter *Reporter, enc models.EncryptionImpl, opts Options) *DirectorySyncer {
	if len(opts.Extensions) == 0 {
		opts = DefaultOptions()
	}
	return &DirectorySyncer{
		client:   client,
		reporter: reporter,
		enc:      enc,
		opts:     opts,
	}
}

// SyncDirectory runs one sync pass over the root pair. Bidirectional runs the
// upload pass then the download pass as two independent sweeps of the same
// tree; when both sides changed the same file the later pass wins, with no
// conflict record kept at this layer. The returned error is non-nil only for
// cancellation; per-file and per-subtree failures are reported via counts.
func (s *DirectorySyncer) SyncDirectory(ctx context.Context, localDir, remoteDir string, direction models.SyncDirection) (Totals, error) {
	var totals Totals

	if direction.IncludesUpload() {
		if err := s.syncUp(ctx, localDir, common.NormalizeRemotePath(remoteDir), &totals); err != nil {
			return totals, err
		}
	}
	if direction.IncludesDownload() {
		if err := s.syncDown(ctx, localDir, common.NormalizeRemotePath(remoteDir), &totals); err != nil {
			return totals, err
		}
	}
	return totals, nil
}

// syncUp pushes localDir into remoteDir, recursing into allow-listed
// subdirectories. A directory that cannot be enumerated or created counts one
// failure for the whole subtree.
func (s *DirectorySyncer) syncUp(ctx context.Context, localDir, remoteDir string, totals *Totals) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.client.CreateDirectory(ctx, remoteDir); err != nil {
		logrus.WithFields(logrus.Fields{
			"remoteDir": remoteDir,
		}).WithError(err).Errorln("Failed to ensure remote directory")
		totals.Failed++
		return nil
	}

	entries, err := os.ReadDir(localDir)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"localDir": localDir,
		}).WithError(err).Errorln("Failed to enumerate local directory")
		totals.Failed++
		return nil
	}

	candidates := 0
	for _, entry := range entries {
		if !entry.IsDir() && s.opts.allowsFile(entry.Name()) {
			candidates++
		}
	}

	handled := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		if entry.IsDir() {
			if s.opts.allowsDir(entry.Name()) {
				if err := s.syncUp(ctx,
					filepath.Join(localDir, entry.Name()),
					common.JoinRemotePath(remoteDir, entry.Name()),
					totals); err != nil {
					return err
				}
			}
			continue
		}
		if !s.opts.allowsFile(entry.Name()) {
			continue
		}

		localPath := filepath.Join(localDir, entry.Name())
		remotePath := common.JoinRemotePath(remoteDir, entry.Name())
		s.publish(models.ProgressActionCompare, "upload", remotePath, candidates, handled, *totals)

		skippedBefore := totals.Skipped
		s.uploadOne(ctx, localPath, remotePath, totals)
		handled++

		action := models.ProgressActionUpload
		if totals.Skipped > skippedBefore {
			action = models.ProgressActionCompare
		}
		s.publish(action, "upload", remotePath, candidates, handled, *totals)
	}
	return nil
}

// uploadOne transfers a single file unless the remote copy is verifiably
// identical. Metadata that cannot prove identity fails open toward
// re-uploading, never toward skipping.
func (s *DirectorySyncer) uploadOne(ctx context.Context, localPath, remotePath string, totals *Totals) {
	info, err := os.Stat(localPath)
	if err != nil {
		logrus.WithField("file", localPath).WithError(err).Errorln("Failed to stat local file")
		totals.Failed++
		return
	}

	remote, err := s.client.GetFileInfo(ctx, remotePath)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"file": remotePath,
		}).WithError(err).Warnln("Failed to fetch remote metadata, re-uploading")
		remote = nil
	}

	if s.enc == nil {
		skip, err := decideSkip(info.Size(), remote, localFileHash(localPath))
		if err != nil {
			logrus.WithField("file", localPath).WithError(err).Warnln("Failed to hash local file, re-uploading")
		}
		if skip {
			totals.Skipped++
			return
		}
	}

	if err := s.transferUp(ctx, localPath, remotePath); err != nil {
		logrus.WithFields(logrus.Fields{
			"file": remotePath,
		}).WithError(err).Errorln("Upload failed")
		totals.Failed++
		return
	}
	totals.Uploaded++
}

// syncDown mirrors syncUp: it pulls remoteDir into localDir with the same
// allow-lists and the same skip rule.
func (s *DirectorySyncer) syncDown(ctx context.Context, localDir, remoteDir string, totals *Totals) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := s.client.ListFiles(ctx, remoteDir)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"remoteDir": remoteDir,
		}).WithError(err).Errorln("Failed to enumerate remote directory")
		totals.Failed++
		return nil
	}

	candidates := 0
	for i := range entries {
		if !entries[i].IsDirectory && s.opts.allowsFile(entries[i].Name) {
			candidates++
		}
	}

	handled := 0
	for i := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		entry := &entries[i]

		if entry.IsDirectory {
			if s.opts.allowsDir(entry.Name) {
				if err := s.syncDown(ctx,
					filepath.Join(localDir, entry.Name),
					common.JoinRemotePath(remoteDir, entry.Name),
					totals); err != nil {
					return err
				}
			}
			continue
		}
		if !s.opts.allowsFile(entry.Name) {
			continue
		}

		localPath := filepath.Join(localDir, entry.Name)
		remotePath := common.JoinRemotePath(remoteDir, entry.Name)
		s.publish(models.ProgressActionCompare, "download", remotePath, candidates, handled, *totals)

		skippedBefore := totals.Skipped
		s.downloadOne(ctx, entry, localPath, remotePath, totals)
		handled++

		action := models.ProgressActionDownload
		if totals.Skipped > skippedBefore {
			action = models.ProgressActionCompare
		}
		s.publish(action, "download", remotePath, candidates, handled, *totals)
	}
	return nil
}

func (s *DirectorySyncer) downloadOne(ctx context.Context, remote *models.RemoteFileInfo, localPath, remotePath string, totals *Totals) {
	if s.enc == nil {
		if info, err := os.Stat(localPath); err == nil {
			skip, err := decideSkip(info.Size(), remote, localFileHash(localPath))
			if err != nil {
				logrus.WithField("file", localPath).WithError(err).Warnln("Failed to hash local file, re-downloading")
			}
			if skip {
				totals.Skipped++
				return
			}
		}
	}

	if err := s.transferDown(ctx, remotePath, localPath); err != nil {
		logrus.WithFields(logrus.Fields{
			"file": remotePath,
		}).WithError(err).Errorln("Download failed")
		totals.Failed++
		return
	}
	totals.Downloaded++
}

// transferUp uploads the file, sealing its bytes through the encryption
// collaborator first when one is configured. The syncer never interprets
// file content either way.
func (s *DirectorySyncer) transferUp(ctx context.Context, localPath, remotePath string) error {
	if s.enc == nil {
		return s.client.UploadFile(ctx, localPath, remotePath)
	}

	plain, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", localPath, err)
	}
	sealed, err := s.enc.Encrypt(ctx, plain)
	if err != nil {
		return fmt.Errorf("failed to encrypt %s: %w", localPath, err)
	}

	tmp, err := os.CreateTemp("", "notewind-upload-*")
	if err != nil {
		return fmt.Errorf("failed to create staging file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(sealed); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to stage %s: %w", localPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to stage %s: %w", localPath, err)
	}

	return s.client.UploadFile(ctx, tmpName, remotePath)
}

func (s *DirectorySyncer) transferDown(ctx context.Context, remotePath, localPath string) error {
	if s.enc == nil {
		return s.client.DownloadFile(ctx, remotePath, localPath)
	}

	tmp, err := os.CreateTemp("", "notewind-download-*")
	if err != nil {
		return fmt.Errorf("failed to create staging file: %w", err)
	}
	tmpName := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpName)

	if err := s.client.DownloadFile(ctx, remotePath, tmpName); err != nil {
		return err
	}
	sealed, err := os.ReadFile(tmpName)
	if err != nil {
		return fmt.Errorf("failed to read staged download %s: %w", remotePath, err)
	}
	plain, err := s.enc.Decrypt(ctx, sealed)
	if err != nil {
		return fmt.Errorf("failed to decrypt %s: %w", remotePath, err)
	}

	return common.AtomicWriteFile(localPath, bytes.NewReader(plain))
}

func (s *DirectorySyncer) publish(action models.ProgressAction, phase, currentFile string, total, processed int, totals Totals) {
	s.reporter.Publish(models.ProgressEvent{
		Total:       total,
		Processed:   processed,
		Action:      action,
		Phase:       phase,
		CurrentFile: currentFile,
		Uploaded:    totals.Uploaded,
		Downloaded:  totals.Downloaded,
		Skipped:     totals.Skipped,
		Failed:      totals.Failed,
	})
}
