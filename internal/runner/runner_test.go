package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/CosmoTheDev/snyklines/internal/report"
	"github.com/CosmoTheDev/snyklines/internal/snyk"
	"github.com/CosmoTheDev/snyklines/models"
)

// fakeSnyk serves a tiny in-memory Snyk REST API.
type fakeSnyk struct {
	groupOrgs  map[string][]map[string]any
	slugs      map[string]string // org id -> slug; missing ids answer 500
	issues     map[string][]map[string]any
	details    map[string]map[string]any // problem id -> attributes
	failIssues map[string]bool
}

func (f *fakeSnyk) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	write := func(w http.ResponseWriter, v any) {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			t.Errorf("encode: %v", err)
		}
	}
	mux.HandleFunc("GET /rest/groups/{group}/orgs", func(w http.ResponseWriter, r *http.Request) {
		write(w, map[string]any{"data": f.groupOrgs[r.PathValue("group")], "links": map[string]any{}})
	})
	mux.HandleFunc("GET /rest/orgs/{org}", func(w http.ResponseWriter, r *http.Request) {
		slug, ok := f.slugs[r.PathValue("org")]
		if !ok {
			http.Error(w, `{"errors":[{"detail":"internal"}]}`, http.StatusInternalServerError)
			return
		}
		write(w, map[string]any{"data": map[string]any{"id": r.PathValue("org"), "attributes": map[string]any{"slug": slug}}})
	})
	mux.HandleFunc("GET /rest/orgs/{org}/issues", func(w http.ResponseWriter, r *http.Request) {
		org := r.PathValue("org")
		if f.failIssues[org] {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		write(w, map[string]any{"data": f.issues[org]})
	})
	mux.HandleFunc("GET /rest/orgs/{org}/issues/detail/code/{problem}", func(w http.ResponseWriter, r *http.Request) {
		attrs, ok := f.details[r.PathValue("problem")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		write(w, map[string]any{"data": map[string]any{"attributes": attrs}})
	})
	return mux
}

func newRunner(t *testing.T, f *fakeSnyk, out *bytes.Buffer) *Runner {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	client := snyk.New(snyk.NewHTTPClient(context.Background(), "tok", 5*time.Second), srv.URL, "2024-10-15")
	return New(client, Options{Out: out})
}

func codeIssue(problem string) map[string]any {
	return map[string]any{
		"id":            "issue-" + problem,
		"attributes":    map[string]any{"title": "t", "problems": []map[string]any{{"id": problem}}},
		"relationships": map[string]any{"scan_item": map[string]any{"data": map[string]any{"id": "proj-1"}}},
	}
}

func region(sev string, start, end int) map[string]any {
	return map[string]any{"severity": sev, "primaryRegion": map[string]any{"startLine": start, "endLine": end}}
}

func TestRunSingleOrgScenario(t *testing.T) {
	f := &fakeSnyk{
		slugs:  map[string]string{"org-123": "acme"},
		issues: map[string][]map[string]any{"org-123": {codeIssue("p1"), codeIssue("p2")}},
		details: map[string]map[string]any{
			"p1": region("High", 10, 12),
			"p2": region("low", 5, 5),
		},
	}
	var out bytes.Buffer
	res, err := newRunner(t, f, &out).Run(context.Background(), Target{OrgID: "org-123"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	entries := res.Report.Entries()
	if len(entries) != 1 || entries[0].Key() != "acme (org-123)" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	if entries[0].Counts != (models.LineCounts{High: 3, Medium: 0, Low: 1, Total: 4}) {
		t.Fatalf("unexpected counts: %+v", entries[0].Counts)
	}
	if res.Orgs[0].Stats.Processed != 2 {
		t.Fatalf("unexpected stats: %+v", res.Orgs[0].Stats)
	}
}

func TestRunSingleOrgSlugFallback(t *testing.T) {
	f := &fakeSnyk{
		issues:  map[string][]map[string]any{"org-123": {codeIssue("p1")}},
		details: map[string]map[string]any{"p1": region("medium", 1, 2)},
	}
	res, err := newRunner(t, f, &bytes.Buffer{}).Run(context.Background(), Target{OrgID: "org-123"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	entries := res.Report.Entries()
	if len(entries) != 1 || entries[0].Key() != "org-123 (org-123)" {
		t.Fatalf("expected id fallback key, got %+v", entries)
	}
}

func TestRunGroupMode(t *testing.T) {
	f := &fakeSnyk{
		groupOrgs: map[string][]map[string]any{"grp-1": {
			{"id": "org-b", "attributes": map[string]any{"slug": "beta"}},
			{"id": "org-a", "attributes": map[string]any{}},
			{"attributes": map[string]any{"slug": "no-id"}},
		}},
		issues: map[string][]map[string]any{
			"org-b": {codeIssue("b1")},
			"org-a": {codeIssue("a1"), codeIssue("a2")},
		},
		details: map[string]map[string]any{
			"b1": region("HIGH", 1, 10),
			"a1": region("medium", 4, 6),
			"a2": region("critical", 1, 1),
		},
	}
	res, err := newRunner(t, f, &bytes.Buffer{}).Run(context.Background(), Target{GroupID: "grp-1"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	entries := res.Report.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 orgs, got %+v", entries)
	}
	if entries[0].Key() != "beta (org-b)" || entries[1].Key() != "org-a (org-a)" {
		t.Fatalf("unexpected keys/order: %s, %s", entries[0].Key(), entries[1].Key())
	}
	if entries[0].Counts != (models.LineCounts{High: 10, Total: 10}) ||
		entries[1].Counts != (models.LineCounts{Medium: 3, Total: 3}) {
		t.Fatalf("unexpected counts: %+v", entries)
	}
	for _, e := range entries {
		if e.Counts.Total != e.Counts.High+e.Counts.Medium+e.Counts.Low {
			t.Fatalf("total out of sync for %s: %+v", e.Key(), e.Counts)
		}
	}
}

func TestRunGroupWithoutOrganizationsFails(t *testing.T) {
	f := &fakeSnyk{groupOrgs: map[string][]map[string]any{"grp-empty": {}}}
	res, err := newRunner(t, f, &bytes.Buffer{}).Run(context.Background(), Target{GroupID: "grp-empty"})
	if !errors.Is(err, ErrNoOrganizations) {
		t.Fatalf("expected ErrNoOrganizations, got %v", err)
	}
	if res != nil {
		t.Fatalf("expected no result, got %+v", res)
	}
}

func TestRunAbortsOnListingFailure(t *testing.T) {
	f := &fakeSnyk{
		slugs:      map[string]string{"org-1": "one"},
		failIssues: map[string]bool{"org-1": true},
	}
	_, err := newRunner(t, f, &bytes.Buffer{}).Run(context.Background(), Target{OrgID: "org-1"})
	var apiErr *snyk.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 APIError, got %v", err)
	}
}

func TestTargetValidate(t *testing.T) {
	for _, tc := range []struct {
		t  Target
		ok bool
	}{
		{Target{GroupID: "g"}, true},
		{Target{OrgID: "o"}, true},
		{Target{}, false},
		{Target{GroupID: "g", OrgID: "o"}, false},
		{Target{GroupID: "  ", OrgID: "org-1"}, false},
		{Target{GroupID: "g", OrgID: " "}, false},
	} {
		err := tc.t.Validate()
		if tc.ok != (err == nil) {
			t.Fatalf("Validate(%+v) = %v", tc.t, err)
		}
		if err != nil && !errors.Is(err, ErrTarget) {
			t.Fatalf("expected ErrTarget, got %v", err)
		}
	}
}

func TestPersistWritesAfterSummary(t *testing.T) {
	dir := t.TempDir()
	r := report.New()
	if err := r.Add(models.Organization{ID: "org-123", Slug: "acme"}, models.LineCounts{High: 3, Low: 1, Total: 4}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	res := &Result{Target: Target{GroupID: "grp"}, Report: r}
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.Local)

	var out bytes.Buffer
	path, err := Persist(&out, res, OutputOptions{Dir: dir, Format: report.FormatJSON}, now)
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if want := filepath.Join(dir, "org_vulnerable_lines_group_20261018_120000.json"); path != want {
		t.Fatalf("path = %q, want %q", path, want)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var decoded map[string]models.LineCounts
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["acme (org-123)"].Total != 4 {
		t.Fatalf("unexpected report %s", b)
	}

	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, nil, 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}
	out.Reset()
	if _, err := Persist(&out, res, OutputOptions{Path: filepath.Join(blocker, "x.json")}, now); err == nil {
		t.Fatalf("expected write failure")
	}
	if !strings.Contains(out.String(), "acme (org-123)") {
		t.Fatalf("summary should be printed before a failed write:\n%s", out.String())
	}
}
