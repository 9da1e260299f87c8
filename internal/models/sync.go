package models

// SyncDirection selects which side of a sync pass pushes changes.
type SyncDirection string

const (
	SyncDirectionLocalToRemote SyncDirection = "localToRemote"
	SyncDirectionRemoteToLocal SyncDirection = "remoteToLocal"
	SyncDirectionBidirectional SyncDirection = "bidirectional"
)

// IncludesUpload reports whether the direction performs a local-to-remote pass.
func (d SyncDirection) IncludesUpload() bool {
	return d == SyncDirectionLocalToRemote || d == SyncDirectionBidirectional
}

// IncludesDownload reports whether the direction performs a remote-to-local pass.
func (d SyncDirection) IncludesDownload() bool {
	return d == SyncDirectionRemoteToLocal || d == SyncDirectionBidirectional
}

// IsValid reports whether d is one of the three supported directions.
func (d SyncDirection) IsValid() bool {
	return d.IncludesUpload() || d.IncludesDownload()
}

/*
A SyncConfig identifies one sync target and is supplied fresh on every call.
There is no persistent session: each call builds its own provider client from
the auth map and discards it afterwards.

	provider: webdav
	enabled: true
	remotePath: /notes
	localPath: /home/user/Notewind
	syncDirection: bidirectional
	auth:
	  url: https://dav.example.com
	  username: user
	  password: secret
*/
type SyncConfig struct {
	Provider      string        `json:"provider" yaml:"provider" mapstructure:"provider"`
	Enabled       bool          `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	RemotePath    string        `json:"remotePath" yaml:"remotePath" mapstructure:"remotePath"`
	LocalPath     string        `json:"localPath" yaml:"localPath" mapstructure:"localPath"`
	SyncOnStartup bool          `json:"syncOnStartup" yaml:"syncOnStartup" mapstructure:"syncOnStartup"`
	SyncDirection SyncDirection `json:"syncDirection" yaml:"syncDirection" mapstructure:"syncDirection"`
	Auth          BasicConfig   `json:"auth" yaml:"auth" mapstructure:"auth"`
}

// SyncOutcome is the aggregate result of one sync pass. Counts accumulate
// monotonically over the pass and are never reset part-way through. A pass
// that ran to completion reports Success=true even when Failed > 0;
// Success=false is reserved for passes that could not start or run at all.
type SyncOutcome struct {
	Success    bool   `json:"success"`
	Cancelled  bool   `json:"cancelled,omitempty"`
	Message    string `json:"message"`
	Uploaded   int    `json:"uploaded"`
	Downloaded int    `json:"downloaded"`
	Failed     int    `json:"failed"`
	Skipped    int    `json:"skipped"`
}

// ProgressAction labels what a ProgressEvent refers to.
type ProgressAction string

const (
	ProgressActionUpload   ProgressAction = "upload"
	ProgressActionDownload ProgressAction = "download"
	ProgressActionCompare  ProgressAction = "compare"
)

// ProgressEvent is a coarse, purely informational progress record streamed to
// subscribers during a sync pass. Consumers may ignore it entirely and still
// receive a correct SyncOutcome.
type ProgressEvent struct {
	Total       int            `json:"total"`
	Processed   int            `json:"processed"`
	Action      ProgressAction `json:"action"`
	Phase       string         `json:"phase,omitempty"`
	CurrentFile string         `json:"currentFile,omitempty"`
	Uploaded    int            `json:"uploaded,omitempty"`
	Downloaded  int            `json:"downloaded,omitempty"`
	Skipped     int            `json:"skipped,omitempty"`
	Failed      int            `json:"failed,omitempty"`
	Conflicts   int            `json:"conflicts,omitempty"`
}

// ConnectionResult is the outcome of a connection or cancellation request.
type ConnectionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// AuthResult is the outcome of an authentication request. For OAuth providers
// AuthUrl carries the consent URL the caller opens in an external browser.
type AuthResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	AuthUrl string `json:"authUrl,omitempty"`
}

// ProviderInfo describes one entry of the static provider catalog.
type ProviderInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}
