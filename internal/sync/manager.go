package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/notewind/syncagent/internal/models"
	"github.com/notewind/syncagent/internal/providers"
)

// Manager dispatches sync, test and auth calls to the provider named by each
// SyncConfig. Every public method returns a well-formed result; backend
// errors are normalized here and never propagate to the caller. The registry
// is read-only after construction, so unrelated passes against different
// providers may run concurrently; passes against the same root pair must be
// serialized by the caller.
type Manager struct {
	registry *providers.Registry
	reporter *Reporter
	opts     Options
	enc      models.EncryptionImpl

	cancelMu   sync.Mutex
	cancelRuns map[uuid.UUID]context.CancelFunc
}

// NewManager builds an orchestrator over the given registry; nil selects the
// default registry populated by the provider packages. enc may be nil when no
// master password is configured.
func NewManager(registry *providers.Registry, enc models.EncryptionImpl) *Manager {
	if registry == nil {
		registry = providers.Default()
	}
	return &Manager{
		registry:   registry,
		reporter:   NewReporter(),
		opts:       DefaultOptions(),
		enc:        enc,
		cancelRuns: make(map[uuid.UUID]context.CancelFunc),
	}
}

// SetOptions replaces the allow-lists used by subsequent sync passes.
func (m *Manager) SetOptions(opts Options) {
	if len(opts.Extensions) > 0 {
		m.opts = opts
	}
}

// Reporter exposes the progress side channel for subscribers.
func (m *Manager) Reporter() *Reporter {
	return m.reporter
}

// SupportedProviders returns the static provider catalog.
func (m *Manager) SupportedProviders() []models.ProviderInfo {
	return m.registry.Catalog()
}

// TestConnection initializes the named provider and issues one cheap
// identity call against it.
func (m *Manager) TestConnection(ctx context.Context, config *models.SyncConfig) models.ConnectionResult {
	client, err := m.prepareClient(config)
	if err != nil {
		return models.ConnectionResult{Success: false, Message: err.Error()}
	}
	return client.TestConnection(ctx)
}

// Authenticate starts the provider's auth flow: a consent URL for OAuth
// providers, immediate success for credential-based ones.
func (m *Manager) Authenticate(ctx context.Context, config *models.SyncConfig) models.AuthResult {
	client, err := m.prepareClient(config)
	if err != nil {
		return models.AuthResult{Success: false, Message: err.Error()}
	}
	return client.Authenticate(ctx)
}

func (m *Manager) SyncLocalToRemote(ctx context.Context, config *models.SyncConfig) models.SyncOutcome {
	return m.runSync(ctx, config, models.SyncDirectionLocalToRemote)
}

func (m *Manager) SyncRemoteToLocal(ctx context.Context, config *models.SyncConfig) models.SyncOutcome {
	return m.runSync(ctx, config, models.SyncDirectionRemoteToLocal)
}

func (m *Manager) SyncBidirectional(ctx context.Context, config *models.SyncConfig) models.SyncOutcome {
	return m.runSync(ctx, config, models.SyncDirectionBidirectional)
}

// Sync runs a pass in the direction the config itself selects.
func (m *Manager) Sync(ctx context.Context, config *models.SyncConfig) models.SyncOutcome {
	direction := config.SyncDirection
	if direction == "" {
		direction = models.SyncDirectionBidirectional
	}
	return m.runSync(ctx, config, direction)
}

// CancelSync requests cooperative cancellation of every sync pass in flight.
// Each pass observes it between files, never mid-transfer.
func (m *Manager) CancelSync() models.ConnectionResult {
	m.cancelMu.Lock()
	defer m.cancelMu.Unlock()
	if len(m.cancelRuns) == 0 {
		return models.ConnectionResult{Success: false, Message: "no sync pass is in progress"}
	}
	for _, cancel := range m.cancelRuns {
		cancel()
	}
	return models.ConnectionResult{Success: true, Message: "cancellation requested"}
}

func (m *Manager) runSync(ctx context.Context, config *models.SyncConfig, direction models.SyncDirection) models.SyncOutcome {
	if !direction.IsValid() {
		return models.SyncOutcome{Success: false, Message: fmt.Sprintf("unknown sync direction: %s", direction)}
	}

	client, err := m.prepareClient(config)
	if err != nil {
		return models.SyncOutcome{Success: false, Message: err.Error()}
	}
	if config.LocalPath == "" || config.RemotePath == "" {
		return models.SyncOutcome{Success: false, Message: "sync config requires localPath and remotePath"}
	}

	passID := uuid.New()
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	m.cancelMu.Lock()
	m.cancelRuns[passID] = cancel
	m.cancelMu.Unlock()
	defer func() {
		m.cancelMu.Lock()
		delete(m.cancelRuns, passID)
		m.cancelMu.Unlock()
	}()

	logrus.WithFields(logrus.Fields{
		"pass":      passID,
		"provider":  config.Provider,
		"direction": direction,
		"local":     config.LocalPath,
		"remote":    config.RemotePath,
	}).Infoln("Starting sync pass")

	// Best effort: providers with a stored refresh token swap in a fresh
	// access token, the rest keep their credentials.
	if refreshed := client.RefreshAuth(runCtx); refreshed {
		logrus.WithField("provider", config.Provider).Debugln("Provider auth refreshed")
	}

	syncer := NewDirectorySyncer(client, m.reporter, m.enc, m.opts)
	totals, err := syncer.SyncDirectory(runCtx, config.LocalPath, config.RemotePath, direction)

	outcome := models.SyncOutcome{
		Success:    true,
		Uploaded:   totals.Uploaded,
		Downloaded: totals.Downloaded,
		Failed:     totals.Failed,
		Skipped:    totals.Skipped,
	}

	switch {
	case errors.Is(err, context.Canceled):
		outcome.Cancelled = true
		outcome.Message = "sync pass cancelled"
	case err != nil:
		outcome.Success = false
		outcome.Message = err.Error()
	default:
		outcome.Message = fmt.Sprintf(
			"sync completed: %d uploaded, %d downloaded, %d skipped, %d failed",
			totals.Uploaded, totals.Downloaded, totals.Skipped, totals.Failed,
		)
	}

	logrus.WithFields(logrus.Fields{
		"pass":       passID,
		"uploaded":   outcome.Uploaded,
		"downloaded": outcome.Downloaded,
		"skipped":    outcome.Skipped,
		"failed":     outcome.Failed,
		"cancelled":  outcome.Cancelled,
	}).Infoln("Sync pass finished")

	return outcome
}

// prepareClient creates and initializes a fresh provider client for one call.
func (m *Manager) prepareClient(config *models.SyncConfig) (models.ProviderClient, error) {
	if config == nil {
		return nil, fmt.Errorf("sync config must not be nil")
	}
	client, err := m.registry.CreateInstance(config.Provider)
	if err != nil {
		return nil, err
	}
	if err := client.Initialize(config); err != nil {
		return nil, fmt.Errorf("failed to initialize provider %s: %w", config.Provider, err)
	}
	return client, nil
}
