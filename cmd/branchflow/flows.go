package main

import (
	"fmt"
	"os"

	"github.com/aretw0/branchflow/pkg/flowfile"
	"github.com/aretw0/branchflow/pkg/workspace"
	"github.com/spf13/cobra"
)

var flowsCmd = &cobra.Command{
	Use:   "flows",
	Short: "Manage flows in the configured store",
	Long:  `List, inspect, import and remove flows kept in the store selected by the config file (memory, file or redis).`,
}

var flowsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored flows",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(func(m *workspace.Manager) error {
			ids, err := m.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("error listing flows: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(ids) == 0 {
				fmt.Fprintln(out, "No flows found.")
				return nil
			}
			fmt.Fprintln(out, "Flows:")
			for _, id := range ids {
				fmt.Fprintln(out, "- "+id)
			}
			return nil
		})
	},
}

var flowsShowCmd = &cobra.Command{
	Use:   "show <flow-id>",
	Short: "Print a stored flow",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(func(m *workspace.Manager) error {
			flow, err := m.Load(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("error loading flow '%s': %w", args[0], err)
			}
			return flowfile.Write(cmd.OutOrStdout(), flow, flowfile.FormatJSON)
		})
	},
}

var flowsPutCmd = &cobra.Command{
	Use:   "put <flow-id> <flow>",
	Short: "Import a flow document into the store",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		flow, err := loadFlow(cmd.Context(), args[1], cmd.InOrStdin())
		if err != nil {
			return err
		}
		return withManager(func(m *workspace.Manager) error {
			if err := m.Save(cmd.Context(), args[0], flow); err != nil {
				return fmt.Errorf("error saving flow '%s': %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved flow '%s' (%d nodes)\n", args[0], len(flow.Nodes))
			return nil
		})
	},
}

var flowsRmCmd = &cobra.Command{
	Use:   "rm <flow-id>...",
	Short: "Remove one or more flows",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(func(m *workspace.Manager) error {
			hasError := false
			for _, id := range args {
				if err := m.Delete(cmd.Context(), id); err != nil {
					fmt.Fprintf(os.Stderr, "Error removing '%s': %v\n", id, err)
					hasError = true
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed flow '%s'\n", id)
			}
			if hasError {
				return fmt.Errorf("some flows could not be removed")
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(flowsCmd)
	flowsCmd.AddCommand(flowsLsCmd)
	flowsCmd.AddCommand(flowsShowCmd)
	flowsCmd.AddCommand(flowsPutCmd)
	flowsCmd.AddCommand(flowsRmCmd)
}

// withManager opens the configured store for the duration of fn.
func withManager(fn func(m *workspace.Manager) error) error {
	b, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer b.close()

	opts := []workspace.Option{
		workspace.WithAnalyzer(newEngine(cfg)),
		workspace.WithLogger(logger),
	}
	if b.locker != nil {
		opts = append(opts, workspace.WithLocker(b.locker))
	}
	return fn(workspace.NewManager(b.store, opts...))
}
