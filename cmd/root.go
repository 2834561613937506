package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	cfgFile string
	verbose bool
)

// errUsage marks invalid flag combinations; Execute exits 1 for it like any
// other error.
var errUsage = errors.New("usage error")

// rootCmd counts vulnerable lines when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "snyklines",
	Short: "Count vulnerable lines of code by Snyk organization and severity",
	Long: `snyklines lists the open Snyk Code issues of one organization, or of every
organization in a group, resolves each issue's primary region and sums the
flagged source lines into high / medium / low buckets.

The Snyk API token is read from the SNYK_TOKEN environment variable.`,
	Example: `  snyklines --group-id YOUR_GROUP_ID
  snyklines --org-id YOUR_ORG_ID
  snyklines --group-id YOUR_GROUP_ID --output org_vuln_lines.json
  snyklines --org-id YOUR_ORG_ID --verbose
  snyklines --org-id YOUR_ORG_ID --debug`,
	Args:          cobra.NoArgs,
	RunE:          runCount,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called from main.go.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ~/.snyklines/config.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"show detailed information and debug messages")

	rootCmd.Version = Version
	rootCmd.AddCommand(
		configCmd,
		historyCmd,
	)
}

func initConfig() {
	if verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
		slog.Debug("Verbose logging enabled")
	}
}
