package cmd

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/CosmoTheDev/snyklines/internal/config"
	"github.com/CosmoTheDev/snyklines/internal/database"
	"github.com/CosmoTheDev/snyklines/internal/history"
	"github.com/CosmoTheDev/snyklines/internal/report"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded runs (requires history.enabled)",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print the per-organization counts of one recorded run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "Number of runs to list (default: history.limit)")
	historyCmd.AddCommand(historyShowCmd)
}

func openHistory(ctx context.Context) (*history.Store, *config.Config, func(), error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading config: %w", err)
	}
	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening database: %w", err)
	}
	store := history.NewStore(db)
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("running migrations: %w", err)
	}
	return store, cfg, func() { db.Close() }, nil
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, cfg, closeFn, err := openHistory(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	limit := historyLimit
	if limit <= 0 {
		limit = cfg.History.Limit
	}
	runs, err := store.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, dimStyle.Render("No runs recorded yet."))
		if !cfg.History.Enabled {
			fmt.Fprintln(out, dimStyle.Render("Set history.enabled to true to record runs."))
		}
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tFINISHED\tMODE\tTARGET\tORGS\tTOTAL\tOUTPUT")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			r.RunID, r.FinishedAt, r.Mode, r.Target, r.OrgCount,
			humanize.Comma(int64(r.Total)), r.OutputPath)
	}
	return tw.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, _, closeFn, err := openHistory(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	run, orgs, err := store.Get(cmd.Context(), args[0])
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("no run with id %s", args[0])
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Run %s", run.RunID)))
	fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("%s %s · region %s · api %s · finished %s",
		run.Mode, run.Target, run.Region, run.APIVersion, run.FinishedAt)))

	rep := report.New()
	for _, o := range orgs {
		if err := rep.Add(o.Org(), o.Counts()); err != nil {
			return err
		}
	}
	report.Display(out, rep)
	if run.OutputPath != "" {
		fmt.Fprintf(out, "\nReport file: %s\n", run.OutputPath)
	}
	return nil
}
