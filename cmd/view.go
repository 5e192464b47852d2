package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"reportminer.dev/pkg/reportminer/internal/controller"
	"reportminer.dev/pkg/reportminer/internal/domain"
)

const themeFlagName = "theme"

// viewCmd represents the view command.
var viewCmd = newViewCmd()

func newViewCmd() *cobra.Command {
	var themePath string

	cmd := &cobra.Command{
		Use:   "view PATHS...",
		Short: "Browse test results interactively",
		Long: `Open a terminal browser with the tests of one or more reports, their failure
details and execution logs.

` + pathPatternsHelp,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			theme := controller.DefaultTheme()

			if themePath != "" {
				loaded, err := controller.LoadTheme(themePath)
				if err != nil {
					return fmt.Errorf("load theme: %w", err)
				}

				theme = loaded
			}

			return runWorkflow(cmd, func(wf domain.Workflow) error {
				return wf.View(cmd.Context(), domain.ViewArgs{Paths: parsePaths(args), Theme: theme})
			})
		},
	}

	cmd.Flags().StringVar(&themePath, themeFlagName, "", "YAML file overriding browser colors")

	return cmd
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
