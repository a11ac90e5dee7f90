// File: cmd/replay.go
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kestrelrpa/kestrel-cli/internal/observability"
	"github.com/kestrelrpa/kestrel-cli/internal/orchestrator"
	"github.com/kestrelrpa/kestrel-cli/pkg/schemas"
)

// newReplayCmd creates the `replay` command group for recorded action lists.
func newReplayCmd() *cobra.Command {
	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay recorded browser actions",
	}
	replayCmd.AddCommand(newReplayPreviewCmd())
	replayCmd.AddCommand(newReplayRunCmd())
	return replayCmd
}

// loadActions reads a recorded action list from a JSON document.
func loadActions(path string) ([]schemas.RecordedAction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var actions []schemas.RecordedAction
	if err := json.Unmarshal(data, &actions); err != nil {
		return nil, fmt.Errorf("parsing actions %s: %w", path, err)
	}
	return actions, nil
}

func newReplayPreviewCmd() *cobra.Command {
	var storageState string

	previewCmd := &cobra.Command{
		Use:   "preview <actions.json>",
		Short: "Replay actions in a visible browser, aborting on the first failure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actions, err := loadActions(args[0])
			if err != nil {
				return err
			}

			orch, err := orchestrator.New(appConfig, observability.GetLogger())
			if err != nil {
				return err
			}
			defer orch.Close()

			result, err := orch.PreviewActions(cmd.Context(), actions, storageState)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}

	previewCmd.Flags().StringVar(&storageState, "storage-state", "", "browser storage state file to restore before replay")
	return previewCmd
}

func newReplayRunCmd() *cobra.Command {
	var (
		startURL string
		params   []string
	)

	runCmd := &cobra.Command{
		Use:   "run <actions.json>",
		Short: "Replay actions headlessly with best-effort continuation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actions, err := loadActions(args[0])
			if err != nil {
				return err
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

			result, err := orch.ExecuteActionsHeadless(cmd.Context(), actions, startURL, inputs)
			if err != nil {
				return err
			}
			if err := printJSON(result); err != nil {
				return err
			}
			if !result.Success {
				return fmt.Errorf("replay failed: %s", result.Error)
			}
			return nil
		},
	}

	runCmd.Flags().StringVar(&startURL, "start-url", "", "URL to open before replaying")
	runCmd.Flags().StringArrayVarP(&params, "param", "p", nil, "input variable key=value (repeatable)")
	return runCmd
}
