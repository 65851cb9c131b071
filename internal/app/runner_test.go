package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/samvad-hq/apirelay/internal/config"
)

func testConfig(t *testing.T, baseURL, requestsFile string) *config.Config {
	t.Helper()
	return &config.Config{
		BaseURL:                baseURL,
		RequestsFile:           requestsFile,
		RequestTimeout:         5 * time.Second,
		JournalType:            "bbolt",
		JournalPath:            filepath.Join(t.TempDir(), "journal.db"),
		JournalTTL:             time.Hour,
		JournalCleanupInterval: time.Hour,
	}
}

func writeRequestSet(t *testing.T, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "requests.yaml")
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write request set: %v", err)
	}
	return file
}

func TestRunnerDispatchesAndJournalsOutcomes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/1":
			w.WriteHeader(http.StatusOK)
		case "/users":
			w.WriteHeader(http.StatusCreated)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	file := writeRequestSet(t, `
requests:
  - method: GET
    endpoint: /users/1
  - method: POST
    endpoint: /users
    body:
      name: a
  - method: GET
    endpoint: /nope
`)
	cfg := testConfig(t, srv.URL, file)

	runner, err := NewRunner(cfg, nil)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	defer runner.Close()

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	entries, err := runner.journal.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("journal holds %d entries, want 3", len(entries))
	}

	statusByEndpoint := map[string]int{}
	for _, e := range entries {
		if e.Error != "" {
			t.Fatalf("unexpected error entry: %+v", e)
		}
		if e.Handle == "" {
			t.Fatalf("entry missing handle: %+v", e)
		}
		statusByEndpoint[e.Endpoint] = e.StatusCode
	}
	if statusByEndpoint["/users/1"] != http.StatusOK ||
		statusByEndpoint["/users"] != http.StatusCreated ||
		statusByEndpoint["/nope"] != http.StatusNotFound {
		t.Fatalf("unexpected statuses: %v", statusByEndpoint)
	}
}

func TestRunnerCancelAfterCutoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	file := writeRequestSet(t, `
requests:
  - method: GET
    endpoint: /hang
  - method: GET
    endpoint: /hang
`)
	cfg := testConfig(t, srv.URL, file)
	cfg.CancelAfter = 50 * time.Millisecond

	runner, err := NewRunner(cfg, nil)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	defer runner.Close()

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	entries, err := runner.journal.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("journal holds %d entries, want 2", len(entries))
	}
	for _, e := range entries {
		if e.Error == "" {
			t.Fatalf("expected cancellation error in entry: %+v", e)
		}
	}
}

func TestRunnerStopsOnContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	file := writeRequestSet(t, `
requests:
  - method: GET
    endpoint: /hang
`)
	cfg := testConfig(t, srv.URL, file)
	cfg.JournalType = "none"
	cfg.JournalPath = ""

	runner, err := NewRunner(cfg, nil)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	defer runner.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("runner did not stop after context cancellation")
	}
}

func TestNewRunnerRejectsBadConfig(t *testing.T) {
	file := writeRequestSet(t, "requests:\n  - method: GET\n    endpoint: /x\n")

	if _, err := NewRunner(nil, nil); err == nil {
		t.Fatalf("expected error for nil config")
	}

	cfg := testConfig(t, "not-a-url", file)
	if _, err := NewRunner(cfg, nil); err == nil {
		t.Fatalf("expected error for invalid base URL")
	}

	cfg = testConfig(t, "https://api.example.com", filepath.Join(t.TempDir(), "absent.yaml"))
	if _, err := NewRunner(cfg, nil); err == nil {
		t.Fatalf("expected error for missing request set")
	}
}
