package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/notewind/syncagent/internal/common"
	"github.com/notewind/syncagent/internal/daemon"
)

// serveCmd runs the local web service the desktop app talks to.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the sync web service",
	Long: `Start the sync web service in the foreground. The Notewind desktop app
uses it to trigger sync passes, follow progress and read recent logs.`,
	RunE: func(cmd *cobra.Command, args []string) error {

		manager, err := buildManager()
		if err != nil {
			return err
		}

		server := daemon.NewServer(cfg, manager)

		// Set up signal handling for graceful shutdown
		sigChan, cleanup := common.NewInterruptChannel()
		defer cleanup()

		if err := server.Start(); err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}

		// Sync-on-startup targets run once in the background
		go func() {
			for name, target := range cfg.EnabledTargets() {
				if !target.SyncOnStartup {
					continue
				}
				fmt.Printf("Running startup sync for %s\n", name)
				outcome := manager.Sync(cmd.Context(), &target)
				fmt.Printf("  %s\n", outcome.Message)
			}
		}()

		sig := <-sigChan
		fmt.Fprintf(os.Stderr, "\nReceived signal %v, shutting down gracefully...\n", sig)
		server.Stop()
		fmt.Println("Server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
