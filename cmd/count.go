package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/CosmoTheDev/snyklines/internal/config"
	"github.com/CosmoTheDev/snyklines/internal/database"
	"github.com/CosmoTheDev/snyklines/internal/history"
	"github.com/CosmoTheDev/snyklines/internal/notify"
	"github.com/CosmoTheDev/snyklines/internal/report"
	"github.com/CosmoTheDev/snyklines/internal/runner"
	"github.com/CosmoTheDev/snyklines/internal/snyk"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	countGroupID    string
	countOrgID      string
	countOutput     string
	countRegion     string
	countAPIVersion string
	countFormat     string
	countDebug      bool
)

func init() {
	f := rootCmd.Flags()
	f.StringVar(&countGroupID, "group-id", "", "Snyk group ID (process all orgs in group)")
	f.StringVar(&countOrgID, "org-id", "", "Snyk organization ID (process single org)")
	f.StringVar(&countOutput, "output", "", "File to save the organization summary to (default: auto-generated name)")
	f.StringVar(&countRegion, "snyk-region", config.DefaultRegion, "Snyk API region: SNYK-US-01|SNYK-US-02|SNYK-EU-01|SNYK-AU-01")
	f.StringVar(&countAPIVersion, "api-version", config.DefaultAPIVersion, "Snyk REST API version for listings (issue details always use "+snyk.DetailAPIVersion+")")
	f.StringVar(&countFormat, "format", "json", "Report format: json|yaml")
	f.BoolVar(&countDebug, "debug", false, "Dump raw issue listings to debug files and print extraction details")
}

// countSettings merges config values with explicitly set flags.
type countSettings struct {
	target     runner.Target
	region     string
	baseURL    string
	apiVersion string
	timeout    time.Duration
	output     runner.OutputOptions
}

func resolveCountSettings(cmd *cobra.Command, cfg *config.Config) (countSettings, error) {
	s := countSettings{
		target:     runner.Target{GroupID: countGroupID, OrgID: countOrgID},
		region:     cfg.Snyk.Region,
		baseURL:    cfg.Snyk.BaseURL,
		apiVersion: cfg.Snyk.APIVersion,
		timeout:    time.Duration(cfg.Snyk.TimeoutSeconds) * time.Second,
	}
	flags := cmd.Flags()
	if flags.Changed("snyk-region") || s.region == "" {
		s.region = countRegion
	}
	if flags.Changed("api-version") || s.apiVersion == "" {
		s.apiVersion = countAPIVersion
	}
	if s.baseURL == "" {
		s.baseURL = snyk.BaseURL(s.region)
	}
	if s.timeout <= 0 {
		s.timeout = 30 * time.Second
	}

	formatName := cfg.Report.Format
	if flags.Changed("format") || formatName == "" {
		formatName = countFormat
	}
	format, err := report.ParseFormat(formatName)
	if err != nil {
		return s, err
	}
	s.output = runner.OutputOptions{Path: countOutput, Dir: cfg.Report.Dir, Format: format}
	return s, nil
}

func runCount(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	target := runner.Target{GroupID: countGroupID, OrgID: countOrgID}
	if err := target.Validate(); err != nil {
		if target.GroupID == "" && target.OrgID == "" {
			_ = cmd.Usage()
		}
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.Snyk.Token == "" {
		return fmt.Errorf("%s environment variable is required", config.TokenEnv)
	}

	settings, err := resolveCountSettings(cmd, cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Initializing Snyk API client (region: %s)...\n", settings.region)
	slog.Debug("Snyk client", "base_url", settings.baseURL, "api_version", settings.apiVersion,
		"detail_api_version", snyk.DetailAPIVersion)

	client := snyk.New(
		snyk.NewHTTPClient(ctx, cfg.Snyk.Token, settings.timeout),
		settings.baseURL,
		settings.apiVersion,
	)

	run := runner.New(client, runner.Options{
		Out:     out,
		Verbose: verbose,
		Debug:   countDebug,
	})
	res, err := run.Run(ctx, settings.target)
	if err != nil {
		return err
	}

	path, err := runner.Persist(out, res, settings.output, time.Now())
	if err != nil {
		return err
	}

	if cfg.History.Enabled {
		if err := recordHistory(ctx, cfg, settings, res, path); err != nil {
			slog.Warn("Could not record run history", "error", err)
		}
	}
	notifyReportReady(ctx, cfg, res, path)

	fmt.Fprintln(out)
	fmt.Fprintln(out, successStyle.Render("Organization vulnerable lines analysis completed successfully!"))
	return nil
}

func recordHistory(ctx context.Context, cfg *config.Config, s countSettings, res *runner.Result, path string) error {
	db, err := database.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	store := history.NewStore(db)
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	orgs := make([]history.OrgRow, 0, len(res.Orgs))
	for _, o := range res.Orgs {
		orgs = append(orgs, history.OrgRow{
			OrgID:     o.Org.ID,
			OrgSlug:   o.Org.Slug,
			High:      o.Counts.High,
			Medium:    o.Counts.Medium,
			Low:       o.Counts.Low,
			Total:     o.Counts.Total,
			Found:     o.Stats.Found,
			Processed: o.Stats.Processed,
			Skipped:   o.Stats.Skipped,
		})
	}
	return store.Record(ctx, history.Run{
		RunID:      history.NewRunID(),
		Mode:       string(res.Target.Mode()),
		Target:     res.Target.ID(),
		Region:     s.region,
		APIVersion: s.apiVersion,
		OutputPath: path,
		StartedAt:  res.StartedAt.UTC().Format(time.RFC3339),
	}, orgs)
}

func notifyReportReady(ctx context.Context, cfg *config.Config, res *runner.Result, path string) {
	d := notify.NewDispatcher(cfg.Notify)
	if !d.IsAnyConfigured() {
		return
	}
	grand := res.Report.GrandTotal()
	d.Notify(ctx, notify.Event{
		Type:   notify.EventReportReady,
		Title:  fmt.Sprintf("Snyk vulnerable lines report ready (%s %s)", res.Target.Mode(), res.Target.ID()),
		Body:   reportBody(res.Report.Len(), grand.High, grand.Medium, grand.Low, grand.Total),
		Mode:   string(res.Target.Mode()),
		Target: res.Target.ID(),
		Path:   path,
		Metadata: map[string]any{
			"organizations": res.Report.Len(),
			"high":          grand.High,
			"medium":        grand.Medium,
			"low":           grand.Low,
			"total":         grand.Total,
		},
	})
}

func reportBody(orgs, high, medium, low, total int) string {
	return fmt.Sprintf("%d organization(s), %s vulnerable lines (high %s, medium %s, low %s)",
		orgs, humanize.Comma(int64(total)), humanize.Comma(int64(high)),
		humanize.Comma(int64(medium)), humanize.Comma(int64(low)))
}
