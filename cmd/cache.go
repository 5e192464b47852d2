package cmd

import (
	"github.com/spf13/cobra"
	"reportminer.dev/pkg/reportminer/internal/domain"
)

var cacheCmd = newCacheCmd()

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the tracker response cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached tracker response",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWorkflow(cmd, func(wf domain.Workflow) error {
				return wf.ClearCache(cmd.Context())
			})
		},
	})

	return cmd
}

func init() {
	rootCmd.AddCommand(cacheCmd)
}
