// File: cmd/actions.go
package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kestrelrpa/kestrel-cli/pkg/rpa"
)

// newActionsCmd creates the `actions` command group for registry discovery.
func newActionsCmd() *cobra.Command {
	actionsCmd := &cobra.Command{
		Use:   "actions",
		Short: "Inspect the built-in action registry",
	}

	var asJSON bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all registered workflow actions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := rpa.NewRegistry()
			actions := registry.ListActions()

			if asJSON {
				return printJSON(actions)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TYPE\tCATEGORY\tNAME\tDESCRIPTION")
			for _, a := range actions {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.Type, a.Category, a.Name, a.Description)
			}
			return w.Flush()
		},
	}
	listCmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")

	actionsCmd.AddCommand(listCmd)
	return actionsCmd
}
