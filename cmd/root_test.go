package cmd

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
	"sync/atomic"
	"testing"

	"github.com/CosmoTheDev/snyklines/internal/config"
	"github.com/CosmoTheDev/snyklines/internal/database"
	"github.com/CosmoTheDev/snyklines/internal/history"
	"github.com/spf13/pflag"
)

// execute runs the root command with args against a clean flag state.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	reset := func(fs *pflag.FlagSet) {
		fs.VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	reset(rootCmd.Flags())
	reset(rootCmd.PersistentFlags())
	reset(historyCmd.Flags())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// isolate points HOME at a temp dir and clears every variable the config
// layer reads.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, kv := range os.Environ() {
		if name, _, _ := strings.Cut(kv, "="); strings.HasPrefix(name, "SNYKLINES_") {
			t.Setenv(name, "")
		}
	}
	t.Setenv(config.TokenEnv, "")
	return home
}

func snykServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /rest/orgs/{org}", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if got := r.Header.Get("Authorization"); got != "token tok-abc" {
			t.Errorf("Authorization = %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"id": r.PathValue("org"), "attributes": map[string]any{"slug": "acme"}},
		})
	})
	mux.HandleFunc("GET /rest/orgs/{org}/issues", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if got := r.URL.Query().Get("version"); got != "2024-10-15" {
			t.Errorf("listing version = %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []any{
				map[string]any{
					"id": "i1",
					"attributes": map[string]any{
						"title":    "SQL injection",
						"problems": []any{map[string]any{"id": "p1"}},
					},
					"relationships": map[string]any{
						"scan_item": map[string]any{"data": map[string]any{"id": "proj-1"}},
					},
				},
			},
			"links": map[string]any{},
		})
	})
	mux.HandleFunc("GET /rest/orgs/{org}/issues/detail/code/{problem}", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"attributes": map[string]any{
					"severity":      "high",
					"primaryRegion": map[string]any{"startLine": 10, "endLine": 14},
				},
			},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRootRequiresExactlyOneTarget(t *testing.T) {
	isolate(t)

	for name, args := range map[string][]string{
		"neither":              {},
		"both":                 {"--group-id", "g", "--org-id", "o"},
		"blank group with org": {"--group-id", " ", "--org-id", "org-1"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := execute(t, args...)
			if !errors.Is(err, errUsage) {
				t.Fatalf("expected usage error, got %v", err)
			}
		})
	}
}

func TestRootRequiresTokenBeforeAnyRequest(t *testing.T) {
	isolate(t)
	var hits atomic.Int32
	srv := snykServer(t, &hits)
	t.Setenv("SNYKLINES_SNYK_BASE_URL", srv.URL)

	_, err := execute(t, "--org-id", "org-123")
	if err == nil || !strings.Contains(err.Error(), "SNYK_TOKEN") {
		t.Fatalf("expected missing token error, got %v", err)
	}
	if n := hits.Load(); n != 0 {
		t.Fatalf("expected no requests, got %d", n)
	}
}

func TestRootRejectsUnknownFormat(t *testing.T) {
	isolate(t)
	t.Setenv(config.TokenEnv, "tok-abc")

	_, err := execute(t, "--org-id", "org-123", "--format", "xml")
	if err == nil || !strings.Contains(err.Error(), "xml") {
		t.Fatalf("expected format error, got %v", err)
	}
}

func TestRootCountsSingleOrgAndWritesReport(t *testing.T) {
	isolate(t)
	var hits atomic.Int32
	srv := snykServer(t, &hits)
	t.Setenv("SNYKLINES_SNYK_BASE_URL", srv.URL)
	t.Setenv(config.TokenEnv, "tok-abc")

	path := filepath.Join(t.TempDir(), "out.json")
	out, err := execute(t, "--org-id", "org-123", "--output", path)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Saved organization vulnerable lines summary to "+path) {
		t.Fatalf("missing save line:\n%s", out)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var got map[string]map[string]int
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	counts, ok := got["acme (org-123)"]
	if !ok {
		t.Fatalf("missing org key in %s", data)
	}
	if counts["high"] != 5 || counts["medium"] != 0 || counts["low"] != 0 || counts["total"] != 5 {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func TestRootRecordsHistoryWhenEnabled(t *testing.T) {
	home := isolate(t)
	var hits atomic.Int32
	srv := snykServer(t, &hits)
	dbPath := filepath.Join(home, "runs.db")
	t.Setenv("SNYKLINES_SNYK_BASE_URL", srv.URL)
	t.Setenv("SNYKLINES_HISTORY_ENABLED", "true")
	t.Setenv("SNYKLINES_DATABASE_PATH", dbPath)
	t.Setenv(config.TokenEnv, "tok-abc")

	reportPath := filepath.Join(home, "out.yaml")
	if out, err := execute(t, "--org-id", "org-123", "--output", reportPath, "--format", "yaml"); err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}

	db, err := database.New(config.DatabaseConfig{Driver: "sqlite", Path: dbPath})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	store := history.NewStore(db)
	runs, err := store.Recent(context.Background(), 10)
	db.Close()
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected one run, got %d", len(runs))
	}
	if runs[0].Mode != "org" || runs[0].Target != "org-123" || runs[0].Total != 5 || runs[0].OutputPath != reportPath {
		t.Fatalf("unexpected run %+v", runs[0])
	}

	out, err := execute(t, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, runs[0].RunID) {
		t.Fatalf("history list missing run id:\n%s", out)
	}

	out, err = execute(t, "history", "show", runs[0].RunID)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	if !strings.Contains(out, "acme (org-123)") {
		t.Fatalf("history show missing org:\n%s", out)
	}

	if _, err := execute(t, "history", "show", "nope"); err == nil {
		t.Fatal("expected error for unknown run id")
	}
}

func TestRedactMasksSecrets(t *testing.T) {
	cfg := &config.Config{}
	cfg.Snyk.Token = "tok"
	cfg.Notify.Slack.WebhookURL = "https://hooks.slack.com/services/T/B/X"
	cfg.Notify.Webhook.Secret = "s3cret"
	cfg.Database.DSN = "user:pw@tcp(db)/x"
	redact(cfg)

	data, _ := json.Marshal(cfg)
	for _, secret := range []string{"s3cret", "services/T/B/X", "user:pw"} {
		if strings.Contains(string(data), secret) {
			t.Fatalf("secret %q leaked: %s", secret, data)
		}
	}
}

func TestReportBodyUsesThousandsSeparators(t *testing.T) {
	got := reportBody(2, 1200, 30, 4, 1234)
	want := "2 organization(s), 1,234 vulnerable lines (high 1,200, medium 30, low 4)"
	if got != want {
		t.Fatalf("reportBody = %q, want %q", got, want)
	}
}
