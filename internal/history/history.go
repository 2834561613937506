// Package history records finished runs so past reports can be listed.
// It is write-mostly: nothing here feeds back into a count.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/CosmoTheDev/snyklines/internal/database"
	"github.com/CosmoTheDev/snyklines/models"
	"github.com/google/uuid"
)

// Run is one row of the runs table.
type Run struct {
	ID         int64  `db:"id"`
	RunID      string `db:"run_id"`
	Mode       string `db:"mode"`
	Target     string `db:"target"`
	Region     string `db:"region"`
	APIVersion string `db:"api_version"`
	OutputPath string `db:"output_path"`
	OrgCount   int    `db:"org_count"`
	High       int    `db:"high"`
	Medium     int    `db:"medium"`
	Low        int    `db:"low"`
	Total      int    `db:"total"`
	StartedAt  string `db:"started_at"`
	FinishedAt string `db:"finished_at"`
}

// Counts returns the run's grand totals.
func (r Run) Counts() models.LineCounts {
	return models.LineCounts{High: r.High, Medium: r.Medium, Low: r.Low, Total: r.Total}
}

// OrgRow is one organization's counts within a run.
type OrgRow struct {
	ID        int64  `db:"id"`
	RunID     string `db:"run_id"`
	Position  int    `db:"position"`
	OrgID     string `db:"org_id"`
	OrgSlug   string `db:"org_slug"`
	High      int    `db:"high"`
	Medium    int    `db:"medium"`
	Low       int    `db:"low"`
	Total     int    `db:"total"`
	Found     int    `db:"issues_found"`
	Processed int    `db:"issues_processed"`
	Skipped   int    `db:"issues_skipped"`
}

// Org returns the organization the row belongs to.
func (o OrgRow) Org() models.Organization {
	return models.Organization{ID: o.OrgID, Slug: o.OrgSlug}
}

// Counts returns the row's line counts.
func (o OrgRow) Counts() models.LineCounts {
	return models.LineCounts{High: o.High, Medium: o.Medium, Low: o.Low, Total: o.Total}
}

// Store reads and writes run history.
type Store struct {
	db database.DB
}

// NewStore wraps db. Call Migrate before first use.
func NewStore(db database.DB) *Store {
	return &Store{db: db}
}

// Migrate brings the schema up to date.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.Migrate(ctx)
}

// NewRunID returns a fresh identifier for a run.
func NewRunID() string {
	return uuid.NewString()
}

// Record stores a run and its organizations. The run's totals are derived
// from orgs.
func (s *Store) Record(ctx context.Context, run Run, orgs []OrgRow) error {
	if run.RunID == "" {
		run.RunID = NewRunID()
	}
	if run.FinishedAt == "" {
		run.FinishedAt = time.Now().UTC().Format(time.RFC3339)
	}
	run.ID = 0
	run.OrgCount = len(orgs)
	run.High, run.Medium, run.Low, run.Total = 0, 0, 0, 0
	for _, o := range orgs {
		run.High += o.High
		run.Medium += o.Medium
		run.Low += o.Low
		run.Total += o.Total
	}

	if _, err := s.db.Insert(ctx, "runs", &run); err != nil {
		return fmt.Errorf("recording run %s: %w", run.RunID, err)
	}
	for i, o := range orgs {
		o.ID = 0
		o.RunID = run.RunID
		o.Position = i
		if _, err := s.db.Insert(ctx, "run_orgs", &o); err != nil {
			return fmt.Errorf("recording org %s for run %s: %w", o.OrgID, run.RunID, err)
		}
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []Run
	if err := s.db.Select(ctx, &runs, `SELECT * FROM runs ORDER BY id DESC LIMIT ?`, limit); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

// Get returns a run and its organizations in processing order.
func (s *Store) Get(ctx context.Context, runID string) (Run, []OrgRow, error) {
	var run Run
	if err := s.db.Get(ctx, &run, `SELECT * FROM runs WHERE run_id = ?`, runID); err != nil {
		return Run{}, nil, fmt.Errorf("loading run %s: %w", runID, err)
	}
	var orgs []OrgRow
	if err := s.db.Select(ctx, &orgs, `SELECT * FROM run_orgs WHERE run_id = ? ORDER BY position`, runID); err != nil {
		return Run{}, nil, fmt.Errorf("loading orgs for run %s: %w", runID, err)
	}
	return run, orgs, nil
}
