// File: cmd/run.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kestrelrpa/kestrel-cli/internal/observability"
	"github.com/kestrelrpa/kestrel-cli/internal/orchestrator"
	"github.com/kestrelrpa/kestrel-cli/pkg/skillstore"
)

// newRunCmd creates the `run` command for executing RPA workflow files.
func newRunCmd() *cobra.Command {
	var params []string

	runCmd := &cobra.Command{
		Use:   "run <workflow.json>",
		Short: "Execute an RPA workflow definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			wf, err := skillstore.LoadWorkflow(args[0])
			if err != nil {
				return fmt.Errorf("loading workflow: %w", err)
			}

			inputs, err := parseParams(params)
			if err != nil {
				return err
			}

			orch, err := orchestrator.New(appConfig, observability.GetLogger())
			if err != nil {
				return err
			}
			defer orch.Close()

			result, err := orch.ExecuteWorkflow(ctx, wf, inputs)
			if err != nil {
				return err
			}
			if err := printJSON(result); err != nil {
				return err
			}
			if !result.Success {
				return fmt.Errorf("workflow failed: %s", result.Error)
			}
			return nil
		},
	}

	runCmd.Flags().StringArrayVarP(&params, "param", "p", nil, "input parameter key=value (repeatable)")
	return runCmd
}
