package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	syncpkg "github.com/notewind/syncagent/internal/sync"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the supported storage providers",
	RunE: func(cmd *cobra.Command, args []string) error {

		manager := syncpkg.NewManager(nil, nil)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
		for _, provider := range manager.SupportedProviders() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", provider.ID, provider.Name, provider.Description)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
}
