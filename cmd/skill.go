// File: cmd/skill.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kestrelrpa/kestrel-cli/internal/observability"
	"github.com/kestrelrpa/kestrel-cli/internal/orchestrator"
)

// newSkillCmd creates the `skill` command group.
func newSkillCmd() *cobra.Command {
	skillCmd := &cobra.Command{
		Use:   "skill",
		Short: "Manage and execute stored skills",
	}
	skillCmd.AddCommand(newSkillListCmd())
	skillCmd.AddCommand(newSkillExecCmd())
	return skillCmd
}

func newSkillListCmd() *cobra.Command {
	var projectOnly bool

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available skills",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := orchestrator.New(appConfig, observability.GetLogger())
			if err != nil {
				return err
			}
			defer orch.Close()

			skills, err := orch.Skills().List(projectOnly)
			if err != nil {
				return err
			}
			return printJSON(skills)
		},
	}

	listCmd.Flags().BoolVar(&projectOnly, "project", false, "list only project skills")
	return listCmd
}

func newSkillExecCmd() *cobra.Command {
	var params []string

	execCmd := &cobra.Command{
		Use:   "exec <name>",
		Short: "Execute a hybrid skill by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			inputs, err := parseParams(params)
			if err != nil {
				return err
			}

			orch, err := orchestrator.New(appConfig, observability.GetLogger())
			if err != nil {
				return err
			}
			defer orch.Close()

			result, err := orch.ExecuteSkill(ctx, args[0], inputs)
			if err != nil {
				return err
			}
			if err := printJSON(result); err != nil {
				return err
			}
			if !result.Success {
				return fmt.Errorf("skill failed: %s", result.Error)
			}
			return nil
		},
	}

	execCmd.Flags().StringArrayVarP(&params, "param", "p", nil, "input parameter key=value (repeatable)")
	return execCmd
}
