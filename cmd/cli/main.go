package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/notewind/syncagent/internal/config"
	"github.com/notewind/syncagent/internal/crypt"
	"github.com/notewind/syncagent/internal/models"
	syncpkg "github.com/notewind/syncagent/internal/sync"
)

// Global configuration instance
var cfg *config.Config

// loadConfig loads the configuration based on the --config flag or default locations
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}

	return config.Load(configFile)
}

func preRunConfigE(cmd *cobra.Command, _ []string) error {
	// Load configuration before any command runs
	var err error
	cfg, err = loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// check if verbose flag is set
	verbose, err := cmd.Flags().GetBool("verbose")
	if err == nil && verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	return nil
}

// buildManager wires the sync orchestrator from the loaded configuration.
func buildManager() (*syncpkg.Manager, error) {
	var enc models.EncryptionImpl
	if cfg.Encryption.Enabled {
		if len(cfg.Encryption.Password) == 0 || len(cfg.Encryption.Salt) == 0 {
			return nil, fmt.Errorf("encryption requires both a password and a salt")
		}
		enc = crypt.NewLocalVault(cfg.Encryption.Password, cfg.Encryption.Salt)
		if err := enc.Initialize(); err != nil {
			return nil, fmt.Errorf("failed to initialize encryption: %w", err)
		}
	}

	manager := syncpkg.NewManager(nil, enc)
	manager.SetOptions(syncpkg.Options{
		Extensions:     cfg.Sync.Extensions,
		AttachmentDirs: cfg.Sync.AttachmentDirs,
	})
	return manager, nil
}

var rootCmd = &cobra.Command{
	Use:   "notewind-sync",
	Short: "Notewind Sync - keep your notes in sync with WebDAV, Google Drive and Dropbox",
	Long: `Notewind Sync keeps a local notes directory in sync with a remote
storage provider. Markdown notes and their attachments are uploaded,
downloaded or mirrored both ways depending on the configured direction.

If no config file is specified, config files are looked up in:
  - ./config.yaml
  - ./config/config.yaml
  - /etc/notewind/config.yaml
  - ~/.config/notewind/config.yaml`,
	PersistentPreRunE: preRunConfigE,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().String("config", "", "Config file (default is ~/.config/notewind/config.yaml)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
