package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth <target>",
	Short: "Authenticate a sync target",
	Long: `Start the authentication flow for a sync target. OAuth providers print
a consent URL to open in a browser; credential providers validate the
configured username and password.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {

		manager, err := buildManager()
		if err != nil {
			return err
		}

		target, err := cfg.GetTarget(args[0])
		if err != nil {
			return err
		}

		result := manager.Authenticate(cmd.Context(), target)
		if !result.Success {
			fmt.Println(result.Message)
			os.Exit(1)
		}

		if len(result.AuthUrl) > 0 {
			fmt.Println("Open the following URL in your browser to grant access:")
			fmt.Println()
			fmt.Printf("  %s\n", result.AuthUrl)
		} else {
			fmt.Println(result.Message)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
}
