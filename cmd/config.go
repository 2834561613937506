package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/CosmoTheDev/snyklines/internal/config"
	"github.com/CosmoTheDev/snyklines/internal/snyk"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and manage snyklines configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current configuration (secrets redacted)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		redact(cfg)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the path to the config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := config.ConfigPath(cfgFile)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), p)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactively write a config file",
	Long: `Walks through region, API version, report and history settings and saves
them to the config file. The Snyk token is never written; export SNYK_TOKEN instead.`,
	RunE: runConfigInit,
}

func init() {
	configCmd.AddCommand(configShowCmd, configPathCmd, configInitCmd)
}

// redact masks secrets. The token is never serialised but is masked anyway
// in case the JSON tags change.
func redact(cfg *config.Config) {
	if cfg.Snyk.Token != "" {
		cfg.Snyk.Token = "***"
	}
	if cfg.Notify.Slack.WebhookURL != "" {
		cfg.Notify.Slack.WebhookURL = "https://hooks.slack.com/***"
	}
	if cfg.Notify.Webhook.Secret != "" {
		cfg.Notify.Webhook.Secret = "***"
	}
	if cfg.Database.DSN != "" {
		cfg.Database.DSN = "***"
	}
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	fmt.Println(headerStyle.Render("\n  Snyk API"))
	timeout := strconv.Itoa(cfg.Snyk.TimeoutSeconds)
	apiForm := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Region").
				Options(
					huh.NewOption("SNYK-US-01 (api.snyk.io)", "SNYK-US-01"),
					huh.NewOption("SNYK-US-02 (api.us.snyk.io)", "SNYK-US-02"),
					huh.NewOption("SNYK-EU-01 (api.eu.snyk.io)", "SNYK-EU-01"),
					huh.NewOption("SNYK-AU-01 (api.au.snyk.io)", "SNYK-AU-01"),
				).
				Value(&cfg.Snyk.Region),
			huh.NewInput().
				Title("REST API version").
				Description("Used for organization and issue listings. Issue details always use " + snyk.DetailAPIVersion + ".").
				Value(&cfg.Snyk.APIVersion),
			huh.NewInput().
				Title("Request timeout (seconds)").
				Value(&timeout).
				Validate(func(s string) error {
					n, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil || n <= 0 {
						return fmt.Errorf("enter a positive number of seconds")
					}
					return nil
				}),
		),
	)
	if err := apiForm.Run(); err != nil {
		return err
	}
	cfg.Snyk.TimeoutSeconds, _ = strconv.Atoi(strings.TrimSpace(timeout))

	fmt.Println(headerStyle.Render("\n  Reports"))
	reportForm := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Report format").
				Options(
					huh.NewOption("JSON", "json"),
					huh.NewOption("YAML", "yaml"),
				).
				Value(&cfg.Report.Format),
			huh.NewInput().
				Title("Report directory (blank for current directory)").
				Value(&cfg.Report.Dir),
			huh.NewConfirm().
				Title("Record run history?").
				Description("Stores each run's counts in " + cfg.Database.Path).
				Value(&cfg.History.Enabled),
		),
	)
	if err := reportForm.Run(); err != nil {
		return err
	}

	if err := config.Save(cfg, cfgFile); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	p, _ := config.ConfigPath(cfgFile)
	fmt.Println(successStyle.Render("\n  Saved " + p))
	if cfg.Snyk.Token == "" {
		fmt.Println(warnStyle.Render("  Remember to export " + config.TokenEnv + " before running snyklines."))
	}
	return nil
}
