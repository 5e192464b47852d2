package cmd

import (
	"github.com/spf13/cobra"
	"reportminer.dev/pkg/reportminer/internal/domain"
	m "reportminer.dev/pkg/reportminer/internal/model"
)

var diffCmd = newDiffCmd()

func newDiffCmd() *cobra.Command {
	var (
		output   string
		copyText bool
	)

	cmd := &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "Compare two test runs",
		Long: `Compare an old and a new report and list new failures, fixed tests and
tests that keep failing.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			diffArgs := domain.DiffArgs{
				Old:    m.Path(args[0]),
				New:    m.Path(args[1]),
				Output: m.Path(output),
				Copy:   copyText,
			}

			return runWorkflow(cmd, func(wf domain.Workflow) error {
				return wf.Diff(cmd.Context(), diffArgs)
			})
		},
	}

	cmd.Flags().StringVarP(&output, outputFlagName, "o", "", "write the comparison to a file instead of stdout")
	cmd.Flags().BoolVar(&copyText, copyFlagName, false, "copy the comparison to the clipboard")

	return cmd
}

func init() {
	rootCmd.AddCommand(diffCmd)
}
