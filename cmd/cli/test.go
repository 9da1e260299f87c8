package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var testCmd = &cobra.Command{
	Use:   "test <target>",
	Short: "Test the connection to a sync target",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {

		manager, err := buildManager()
		if err != nil {
			return err
		}

		target, err := cfg.GetTarget(args[0])
		if err != nil {
			return err
		}

		result := manager.TestConnection(cmd.Context(), target)
		fmt.Println(result.Message)
		if !result.Success {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(testCmd)
}
