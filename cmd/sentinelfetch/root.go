package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"sentinelfetch/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	noColor    bool
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sentinelfetch",
	Short: "Download Sentinel-2 image chips for a table of coordinates",
	Long: `sentinelfetch reads a CSV of identifiers and coordinates and downloads one
true-color Sentinel-2 PNG per row from the Sentinel Hub Process API.

Rows whose image already exists in the output directory are skipped, so an
interrupted run can simply be started again.

Credentials come from (highest priority first):
  - --client-id / --client-secret flags
  - SENTINELFETCH_CLIENT_ID / SENTINELFETCH_CLIENT_SECRET (also read from .env)
  - the configuration file
  - credentials stored with 'sentinelfetch auth login'`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Fetching is the default action
		return runFetch(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		newConsole().PrintError("Error: %v", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./sentinelfetch.yaml or ~/.config/sentinelfetch/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output, print only errors and the summary")

	rootCmd.SetVersionTemplate(`sentinelfetch {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// newConsole builds the console from the global flags. Colors are off when
// requested, when NO_COLOR is set, or when stdout is not a terminal.
func newConsole() *ui.Console {
	color := !noColor && os.Getenv("NO_COLOR") == "" && term.IsTerminal(int(os.Stdout.Fd()))
	return ui.NewConsole(os.Stdout, ui.WithColor(color), ui.WithQuiet(quiet))
}
