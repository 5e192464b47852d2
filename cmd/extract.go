package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"reportminer.dev/pkg/reportminer/internal/domain"
	m "reportminer.dev/pkg/reportminer/internal/model"
)

const (
	formatFlagName   = "format"
	statusFlagName   = "status"
	outputFlagName   = "output"
	noUniqueFlagName = "no-unique"
	sortFlagName     = "sort"
	countFlagName    = "count"
	summaryFlagName  = "summary"
	copyFlagName     = "copy"
	groupFlagName    = "group"
	rerunFlagName    = "rerun"
	rerunCmdFlagName = "rerun-cmd"
)

var extractCmd = newExtractCmd()

func newExtractCmd() *cobra.Command {
	var (
		output   string
		noUnique bool
		sortIDs  bool
		count    bool
		summary  bool
		copyText bool
		group    bool
		rerun    bool
	)

	cmd := &cobra.Command{
		Use:     "extract PATHS...",
		Aliases: []string{"list"},
		Short:   "Extract test identifiers from reports",
		Long: `Extract TMS identifiers of tests matching a status from one or more reports.

` + pathPatternsHelp + `

Formats: ` + strings.Join(domain.AvailableFormats(), ", "),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			extractArgs := domain.ExtractArgs{
				Paths:         parsePaths(args),
				Format:        viper.GetString(formatKey),
				Status:        viper.GetString(statusKey),
				Output:        m.Path(output),
				Unique:        !noUnique,
				Sort:          sortIDs,
				Count:         count,
				Summary:       summary,
				Copy:          copyText,
				Group:         group,
				Rerun:         rerun,
				RerunTemplate: viper.GetString(rerunCmdKey),
			}

			return runWorkflow(cmd, func(wf domain.Workflow) error {
				return wf.Extract(cmd.Context(), extractArgs)
			})
		},
	}

	flags := cmd.Flags()
	flags.StringP(formatFlagName, "f", defaultFormat,
		fmt.Sprintf("output format (%s)", strings.Join(domain.AvailableFormats(), ", ")))
	bindFlagToConfig(flags.Lookup(formatFlagName), formatKey)

	flags.StringP(statusFlagName, "s", defaultStatus, "status to select (all, passed, failed, skipped, error, xfailed, xpassed, rerun)")
	bindFlagToConfig(flags.Lookup(statusFlagName), statusKey)

	flags.String(rerunCmdFlagName, domain.DefaultRerunTemplate, "rerun command template, {tests} is replaced by the test names")
	bindFlagToConfig(flags.Lookup(rerunCmdFlagName), rerunCmdKey)

	flags.StringVarP(&output, outputFlagName, "o", "", "write results to a file instead of stdout")
	flags.BoolVarP(&noUnique, noUniqueFlagName, "u", false, "keep duplicate identifiers")
	flags.BoolVarP(&sortIDs, sortFlagName, "S", false, "sort by identifier")
	flags.BoolVarP(&count, countFlagName, "c", false, "print only the number of matching tests")
	flags.BoolVar(&summary, summaryFlagName, false, "with --count, print a per-status table")
	flags.BoolVar(&copyText, copyFlagName, false, "copy results to the clipboard")
	flags.BoolVarP(&group, groupFlagName, "g", false, "group results by failure reason")
	flags.BoolVarP(&rerun, rerunFlagName, "r", false, "print a command that reruns the selected tests")

	return cmd
}

func init() {
	rootCmd.AddCommand(extractCmd)
}
