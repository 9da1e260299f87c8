package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/notewind/syncagent/internal/models"
)

// syncCmd runs one sync pass for a named target, or for every enabled target
// when none is given.
var syncCmd = &cobra.Command{
	Use:   "sync [target]",
	Short: "Run a sync pass",
	Long: `Run a sync pass for the named target from the configuration file.
Without a target every enabled target is synced in turn.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {

		manager, err := buildManager()
		if err != nil {
			return err
		}

		direction, err := cmd.Flags().GetString("direction")
		if err != nil {
			return err
		}

		targets := cfg.EnabledTargets()
		if len(args) == 1 {
			target, err := cfg.GetTarget(args[0])
			if err != nil {
				return err
			}
			targets = map[string]models.SyncConfig{args[0]: *target}
		}

		if len(targets) == 0 {
			return fmt.Errorf("no enabled sync targets configured")
		}

		failed := 0
		for name, target := range targets {
			if len(direction) > 0 {
				target.SyncDirection = models.SyncDirection(direction)
			}

			fmt.Printf("Syncing %s (%s)...\n", name, target.Provider)
			outcome := manager.Sync(cmd.Context(), &target)

			fmt.Printf("  %s\n", outcome.Message)
			if !outcome.Success {
				failed++
			}
		}

		if failed > 0 {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().String("direction", "",
		"Override the target's sync direction (localToRemote, remoteToLocal, bidirectional)")
	rootCmd.AddCommand(syncCmd)
}
