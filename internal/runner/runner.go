// Package runner drives one counting run: it resolves the target
// organizations, aggregates each one in turn and assembles the report.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/CosmoTheDev/snyklines/internal/linecount"
	"github.com/CosmoTheDev/snyklines/internal/report"
	"github.com/CosmoTheDev/snyklines/internal/snyk"
	"github.com/CosmoTheDev/snyklines/models"
)

var (
	// ErrNoOrganizations is returned when a group has no organizations.
	ErrNoOrganizations = errors.New("no organizations found to process")
	// ErrTarget is returned unless exactly one of group id and org id is set.
	ErrTarget = errors.New("exactly one of --group-id or --org-id must be specified")
)

// Mode names how the organizations were chosen.
type Mode string

const (
	ModeGroup Mode = "group"
	ModeOrg   Mode = "org"
)

// Target is what a run counts: every org of a group, or one org.
type Target struct {
	GroupID string
	OrgID   string
}

// Validate checks that exactly one of GroupID and OrgID is set. Any
// non-empty value counts as set, whitespace included, so Mode and ID agree.
func (t Target) Validate() error {
	hasGroup := t.GroupID != ""
	hasOrg := t.OrgID != ""
	if hasGroup == hasOrg {
		if hasGroup {
			return fmt.Errorf("%w: cannot specify both", ErrTarget)
		}
		return ErrTarget
	}
	return nil
}

// Mode reports group or org mode.
func (t Target) Mode() Mode {
	if t.GroupID != "" {
		return ModeGroup
	}
	return ModeOrg
}

// ID is the group id in group mode and the org id otherwise.
func (t Target) ID() string {
	if t.GroupID != "" {
		return t.GroupID
	}
	return t.OrgID
}

// API is the subset of the Snyk client a run needs.
type API interface {
	linecount.IssueSource
	ListGroupOrgs(ctx context.Context, groupID string) ([]snyk.OrgRecord, error)
	OrgSlug(ctx context.Context, orgID string) (string, error)
}

// Options controls console output.
type Options struct {
	Out      io.Writer
	Verbose  bool
	Debug    bool
	DebugDir string
}

// OrgResult is one organization's outcome.
type OrgResult struct {
	Org    models.Organization
	Counts models.LineCounts
	Stats  linecount.Stats
}

// Result is a finished aggregation, ready to be displayed and persisted.
type Result struct {
	Target    Target
	Report    *report.Report
	Orgs      []OrgResult
	StartedAt time.Time
}

// Runner executes runs against one API client.
type Runner struct {
	api     API
	counter *linecount.Counter
	opts    Options
}

// New returns a Runner. The same client serves every request of the run.
func New(api API, opts Options) *Runner {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	return &Runner{
		api: api,
		counter: linecount.New(api, linecount.Options{
			Out:      opts.Out,
			Verbose:  opts.Verbose,
			Debug:    opts.Debug,
			DebugDir: opts.DebugDir,
		}),
		opts: opts,
	}
}

// Run resolves the target's organizations and counts each of them in order.
// A failed listing aborts the run; nothing is returned for it.
func (r *Runner) Run(ctx context.Context, t Target) (*Result, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	res := &Result{Target: t, Report: report.New(), StartedAt: time.Now()}

	orgs, err := r.ResolveOrgs(ctx, t)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(r.opts.Out, "\nProcessing %d organization(s)...\n", len(orgs))
	for i, org := range orgs {
		fmt.Fprintf(r.opts.Out, "\n[%d/%d] %s\n", i+1, len(orgs), strings.Repeat("=", 50))

		counts, stats, err := r.counter.Count(ctx, org)
		if err != nil {
			return nil, fmt.Errorf("processing organization %s: %w", org.Key(), err)
		}
		if err := res.Report.Add(org, counts); err != nil {
			return nil, err
		}
		res.Orgs = append(res.Orgs, OrgResult{Org: org, Counts: counts, Stats: stats})
	}
	return res, nil
}

// ResolveOrgs expands a group into its organizations, or looks up the slug
// of a single organization.
func (r *Runner) ResolveOrgs(ctx context.Context, t Target) ([]models.Organization, error) {
	if t.Mode() == ModeGroup {
		return r.groupOrgs(ctx, t.GroupID)
	}
	fmt.Fprintf(r.opts.Out, "Single org mode: processing organization %s...\n", t.OrgID)
	return []models.Organization{{ID: t.OrgID, Slug: r.orgSlug(ctx, t.OrgID)}}, nil
}

func (r *Runner) groupOrgs(ctx context.Context, groupID string) ([]models.Organization, error) {
	fmt.Fprintf(r.opts.Out, "Group mode: fetching all organizations in group %s...\n", groupID)
	records, err := r.api.ListGroupOrgs(ctx, groupID)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(r.opts.Out, "Found %d organizations in group\n", len(records))

	orgs := make([]models.Organization, 0, len(records))
	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		if rec.ID == "" {
			slog.Debug("Skipping organization record without id", "group", groupID)
			continue
		}
		if seen[rec.ID] {
			slog.Debug("Skipping duplicate organization", "group", groupID, "org", rec.ID)
			continue
		}
		seen[rec.ID] = true

		slug := rec.Attributes.Slug
		if slug == "" {
			slug = rec.ID
		}
		org := models.Organization{ID: rec.ID, Slug: slug}
		orgs = append(orgs, org)
		if r.opts.Verbose {
			fmt.Fprintf(r.opts.Out, "  Will process: %s\n", org.Key())
		}
	}
	if len(orgs) == 0 {
		return nil, fmt.Errorf("group %s: %w", groupID, ErrNoOrganizations)
	}
	return orgs, nil
}

// orgSlug never fails: any lookup problem falls back to the id.
func (r *Runner) orgSlug(ctx context.Context, orgID string) string {
	slug, err := r.api.OrgSlug(ctx, orgID)
	if err != nil {
		slog.Warn("Could not fetch slug for org, using org id", "org", orgID, "error", err)
		return orgID
	}
	if slug == "" {
		slog.Warn("No slug found for org, using org id", "org", orgID)
		return orgID
	}
	return slug
}
