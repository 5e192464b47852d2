// Package cmd provides the root command and CLI setup for reportminer.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"reportminer.dev/pkg/reportminer/internal/adapter"
	"reportminer.dev/pkg/reportminer/internal/controller"
	"reportminer.dev/pkg/reportminer/internal/domain"
	m "reportminer.dev/pkg/reportminer/internal/model"
)

const (
	verboseFlagName = "verbose"
	logFileFlagName = "log-file"
)

// workflowFactory builds the workflow for a command run. The returned
// function releases resources such as the cache database.
type workflowFactory func(cmd *cobra.Command) (domain.Workflow, func(), error)

// newWorkflow is replaced in tests.
var newWorkflow workflowFactory = buildWorkflow

var (
	verboseFlag bool
	logFileFlag string
)

const pathPatternsHelp = `Paths may be pytest-html report files or directories.
Directories are searched recursively for *.html reports.`

const rootLongDescription = `Mine extracts TMS test identifiers from pytest-html reports so they can be
listed, compared between runs, linked to Jira and browsed interactively.

` + pathPatternsHelp

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "mine",
		Short:         "Extract and compare test results from pytest-html reports",
		Long:          rootLongDescription,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(viper.GetString(logFilenameKey), viper.GetBool(logVerboseKey))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", defaultLogVerbose, "log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)

	cmd.PersistentFlags().StringVar(&logFileFlag, logFileFlagName, defaultLogFilename, "path of the log file")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(logFileFlagName), logFilenameKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// buildWorkflow wires adapters, UI and domain services from the current configuration.
func buildWorkflow(cmd *cobra.Command) (domain.Workflow, func(), error) {
	cache, err := adapter.NewResponseCache(
		viper.GetString(cacheBackendKey),
		viper.GetString(cacheDirKey),
		time.Duration(viper.GetInt(cacheTTLKey))*time.Hour,
	)
	if err != nil {
		return nil, func() {}, fmt.Errorf("open response cache: %w", err)
	}

	cleanup := func() {
		closer, ok := cache.(io.Closer)
		if !ok {
			return
		}

		if err := closer.Close(); err != nil {
			slog.Warn("failed to close response cache", "error", err)
		}
	}

	tracker := adapter.NewJiraClient(adapter.JiraConfig{
		BaseURL:    viper.GetString(jiraURLKey),
		Email:      viper.GetString(jiraEmailKey),
		Token:      viper.GetString(jiraTokenKey),
		StepsField: viper.GetString(jiraStepsFieldKey),
		Timeout:    time.Duration(viper.GetInt(jiraTimeoutKey)) * time.Second,
	}, cache)

	terminal := controller.DetectTerminal()
	ui := controller.NewUI(cmd, terminal, viper.GetString(spinnerKey))

	wf := domain.NewWorkflow(
		adapter.NewLocalReportExtractor(),
		tracker,
		cache,
		adapter.NewResultStore(),
		adapter.NewSystemClipboard(),
		adapter.NewBrowserOpener(),
		ui,
		domain.NewEnricher(tracker, viper.GetInt(jiraParallelKey)),
		domain.NewComparator(),
	)

	slog.Debug("workflow ready",
		"tracker_configured", tracker.Configured(),
		"cache_backend", viper.GetString(cacheBackendKey),
		"stdout_tty", terminal.Stdout,
		"stderr_tty", terminal.Stderr)

	return wf, cleanup, nil
}

// runWorkflow builds the workflow, runs fn and releases resources.
func runWorkflow(cmd *cobra.Command, fn func(wf domain.Workflow) error) error {
	wf, cleanup, err := newWorkflow(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	return fn(wf)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func parsePaths(args []string) []m.Path {
	paths := make([]m.Path, 0, len(args))
	for _, arg := range args {
		paths = append(paths, m.Path(arg))
	}

	return paths
}
