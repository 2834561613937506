// Package linecount reduces one organization's open Snyk Code issues into
// vulnerable line totals per severity.
package linecount

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/CosmoTheDev/snyklines/internal/snyk"
	"github.com/CosmoTheDev/snyklines/models"
)

// IssueSource is the part of the Snyk client the counter needs.
type IssueSource interface {
	ListCodeIssues(ctx context.Context, orgID string) (*snyk.IssueListing, error)
	IssueDetail(ctx context.Context, orgID, projectID, problemID string) (*snyk.IssueDetail, error)
}

// Options controls diagnostic output. None of it changes the counts.
type Options struct {
	// Out receives progress lines; nil discards them.
	Out io.Writer
	// Verbose prints issue samples and the first processed issues.
	Verbose bool
	// Debug dumps the raw listing to DebugDir and prints per-issue extraction.
	Debug    bool
	DebugDir string
}

// Stats summarises one organization's issue loop.
type Stats struct {
	Found     int
	Processed int
	Skipped   int
}

// Counter aggregates vulnerable lines for one organization at a time.
type Counter struct {
	src  IssueSource
	opts Options
}

// New returns a Counter reading issues from src.
func New(src IssueSource, opts Options) *Counter {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	return &Counter{src: src, opts: opts}
}

const (
	verboseSamples   = 2
	verboseProcessed = 3
)

// Count lists every open code issue of org, resolves each one's detail and
// sums end-start+1 into its severity bucket. Issues without identifiers,
// detail, line range or a high/medium/low severity are skipped. Only a
// failed listing is returned as an error.
func (c *Counter) Count(ctx context.Context, org models.Organization) (models.LineCounts, Stats, error) {
	var counts models.LineCounts
	var stats Stats
	out := c.opts.Out

	fmt.Fprintf(out, "Processing organization: %s (%s)\n", org.Slug, org.ID)

	listing, err := c.src.ListCodeIssues(ctx, org.ID)
	if err != nil {
		return counts, stats, err
	}
	stats.Found = len(listing.Issues)
	if n := len(listing.Raw); n > stats.Found {
		// Items the client could not decode are already dropped from Issues.
		stats.Skipped = n - stats.Found
		stats.Found = n
	}
	fmt.Fprintf(out, "  Found %d code issues\n", stats.Found)

	if c.opts.Debug {
		if path, err := writeDebugDump(c.opts.DebugDir, org, listing); err != nil {
			slog.Warn("Could not save debug file", "org", org.ID, "error", err)
		} else {
			fmt.Fprintf(out, "  Debug: saved all %d issues to %s\n", stats.Found, path)
		}
	}

	if c.opts.Verbose {
		for i, is := range listing.Issues {
			if i == verboseSamples {
				break
			}
			fmt.Fprintf(out, "  Sample issue %d: id=%s key=%s title=%s\n",
				i+1, is.ID, is.Attributes.Key, titleOf(is))
		}
	}

	for i, is := range listing.Issues {
		n := i + 1
		projectID, problemID, err := is.Identifiers()
		if c.opts.Debug {
			c.printExtraction(n, org, is)
		}
		if err != nil {
			slog.Debug("Skipping issue", "org", org.ID, "index", n, "issue", is.ID, "reason", err)
			stats.Skipped++
			continue
		}

		detail, err := c.src.IssueDetail(ctx, org.ID, projectID, problemID)
		if err != nil {
			slog.Warn("Could not fetch issue details", "org", org.ID, "problem", problemID, "error", err)
			stats.Skipped++
			continue
		}

		start, end, err := detail.LineRange()
		if err != nil {
			slog.Debug("Skipping issue", "org", org.ID, "problem", problemID, "reason", err)
			stats.Skipped++
			continue
		}

		sev, ok := models.ParseSeverity(detail.Severity())
		if !ok {
			slog.Debug("Skipping issue with unknown severity", "org", org.ID, "problem", problemID, "severity", detail.Severity())
			stats.Skipped++
			continue
		}

		lines := end - start + 1
		counts.Add(sev, lines)
		stats.Processed++

		if c.opts.Verbose && stats.Processed <= verboseProcessed {
			fmt.Fprintf(out, "  Processed issue %s...: %d %s lines\n", short(problemID), lines, sev)
		}
	}

	fmt.Fprintf(out, "  Processed %d issues, skipped %d issues\n", stats.Processed, stats.Skipped)
	return counts, stats, nil
}

func (c *Counter) printExtraction(n int, org models.Organization, is snyk.IssueSummary) {
	out := c.opts.Out
	fmt.Fprintf(out, "  Issue %d:\n", n)
	fmt.Fprintf(out, "    Title:                  %s\n", titleOf(is))
	fmt.Fprintf(out, "    org_id (requested):     %s\n", org.ID)
	fmt.Fprintf(out, "    org_id (from issue):    %s\n", is.Relationships.Organization.Data.ID)
	fmt.Fprintf(out, "    project_id (scan_item): %s\n", is.ProjectID())
	fmt.Fprintf(out, "    problem_id:             %s\n", is.ProblemID())
	fmt.Fprintf(out, "    detail path:            %s?project_id=%s\n\n",
		snyk.DetailPath(org.ID, is.ProblemID()), is.ProjectID())
}

func titleOf(is snyk.IssueSummary) string {
	if is.Attributes.Title == "" {
		return "No title"
	}
	return is.Attributes.Title
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
