package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"goupi/internal/config"
	"goupi/internal/goupi"
	"goupi/internal/testutil"
)

func writeSourceFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(path, past, past); err != nil {
		t.Fatalf("backdating %s: %v", path, err)
	}
}

// newTestSite lays out a one-post site and returns its source directory.
func newTestSite(t *testing.T) string {
	t.Helper()
	source := filepath.Join(t.TempDir(), "source")
	writeSourceFile(t, filepath.Join(source, "site.toml"), "Site = \"My Blog\"\n")
	writeSourceFile(t, filepath.Join(source, "prelude.html"), "<title><GoupiSite/></title><GoupiContent/>")
	writeSourceFile(t, filepath.Join(source, "posts", "hello", "post.toml"), "Title = \"Hello\"\nDescription = \"World\"\n")
	writeSourceFile(t, filepath.Join(source, "posts", "hello", "content.md"), "# Hi")
	return source
}

func newTestApp(t *testing.T, cfg *config.Config) *GoupiApp {
	t.Helper()
	a, err := NewGoupiApp(cfg, io.Discard)
	if err != nil {
		t.Fatalf("NewGoupiApp() error = %v", err)
	}
	a.ids = testutil.NewStubIDGenerator()
	t.Cleanup(func() { a.Close() })
	return a
}

func memoryConfig(t *testing.T) *config.Config {
	cfg := config.Default(t.TempDir())
	cfg.History = config.HistoryConfig{Type: "memory"}
	return cfg
}

func TestGoupiApp_Build(t *testing.T) {
	source := newTestSite(t)
	output := filepath.Join(t.TempDir(), "output")
	a := newTestApp(t, memoryConfig(t))

	report, err := a.Build(context.Background(), source, output, false)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got := report.Count(goupi.PostBuilt); got != 1 {
		t.Errorf("built = %d, want 1", got)
	}

	page, err := os.ReadFile(filepath.Join(output, "hello", "index.html"))
	if err != nil {
		t.Fatalf("reading post output: %v", err)
	}
	if string(page) != "<title>My Blog</title><h1>Hi</h1>" {
		t.Errorf("page = %q", page)
	}

	runs, err := a.GetHistory(10)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	if runs[0].RunID != "run-1" || runs[0].Status != goupi.RunSucceeded || runs[0].Built != 1 {
		t.Errorf("run = %+v", runs[0])
	}

	for _, ref := range []string{"1", "#1", "run-1"} {
		run, results, err := a.GetRun(ref)
		if err != nil {
			t.Fatalf("GetRun(%q) error = %v", ref, err)
		}
		if run.SourceDir != source {
			t.Errorf("GetRun(%q) SourceDir = %q, want %q", ref, run.SourceDir, source)
		}
		if len(results) != 1 || results[0].Post != "hello" || results[0].Status != goupi.PostBuilt {
			t.Errorf("GetRun(%q) results = %+v", ref, results)
		}
	}
}

func TestGoupiApp_Build_upToDateThenForced(t *testing.T) {
	source := newTestSite(t)
	output := filepath.Join(t.TempDir(), "output")
	a := newTestApp(t, memoryConfig(t))

	if _, err := a.Build(context.Background(), source, output, false); err != nil {
		t.Fatalf("first Build() error = %v", err)
	}

	report, err := a.Build(context.Background(), source, output, false)
	if err != nil {
		t.Fatalf("second Build() error = %v", err)
	}
	if got := report.Count(goupi.PostUpToDate); got != 1 {
		t.Errorf("up to date = %d, want 1", got)
	}

	report, err = a.Build(context.Background(), source, output, true)
	if err != nil {
		t.Fatalf("forced Build() error = %v", err)
	}
	if got := report.Count(goupi.PostBuilt); got != 1 {
		t.Errorf("built with force = %d, want 1", got)
	}

	runs, err := a.GetHistory(10)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	wantIDs := []string{"run-3", "run-2", "run-1"}
	if len(runs) != len(wantIDs) {
		t.Fatalf("got %d runs, want %d", len(runs), len(wantIDs))
	}
	for i, run := range runs {
		if run.RunID != wantIDs[i] || run.Status != goupi.RunSucceeded {
			t.Errorf("runs[%d] = %s %s, want %s success", i, run.RunID, run.Status, wantIDs[i])
		}
	}
	if runs[1].UpToDate != 1 || runs[0].Built != 1 {
		t.Errorf("counts: second run up to date = %d, forced run built = %d, want 1 and 1", runs[1].UpToDate, runs[0].Built)
	}
}

func TestGoupiApp_Build_logsTaggedPerRun(t *testing.T) {
	source := newTestSite(t)
	output := filepath.Join(t.TempDir(), "output")

	var stderr bytes.Buffer
	a, err := NewGoupiApp(memoryConfig(t), &stderr)
	if err != nil {
		t.Fatalf("NewGoupiApp() error = %v", err)
	}
	defer a.Close()
	a.ids = testutil.NewStubIDGenerator()

	for range 2 {
		if _, err := a.Build(context.Background(), source, output, true); err != nil {
			t.Fatalf("Build() error = %v", err)
		}
	}

	started := map[string]int{}
	for _, line := range strings.Split(strings.TrimSuffix(stderr.String(), "\n"), "\n") {
		fields := strings.Split(line, "\t")
		if len(fields) >= 4 && fields[3] == "build started" {
			started[fields[2]]++
		}
	}
	if started["run-1"] != 1 || started["run-2"] != 1 {
		t.Errorf("build started lines by run = %v, want one each for run-1 and run-2", started)
	}
}

func TestGoupiApp_Build_siteErrorIsJournaled(t *testing.T) {
	source := newTestSite(t)
	if err := os.Remove(filepath.Join(source, "prelude.html")); err != nil {
		t.Fatalf("removing prelude: %v", err)
	}
	a := newTestApp(t, memoryConfig(t))

	_, err := a.Build(context.Background(), source, filepath.Join(t.TempDir(), "output"), false)
	if !errors.Is(err, goupi.ErrPrelude) {
		t.Fatalf("Build() error = %v, want ErrPrelude", err)
	}

	runs, err := a.GetHistory(10)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(runs) != 1 || runs[0].Status != goupi.RunFailed || runs[0].Error == "" {
		t.Errorf("runs = %+v, want one failed run with an error", runs)
	}
}

func TestGoupiApp_Build_missingSource(t *testing.T) {
	a := newTestApp(t, memoryConfig(t))

	if _, err := a.Build(context.Background(), filepath.Join(t.TempDir(), "nope"), t.TempDir(), false); err == nil {
		t.Fatal("expected error for missing source directory")
	}
	runs, err := a.GetHistory(10)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("got %d runs, want none recorded", len(runs))
	}
}

func TestGoupiApp_Publish(t *testing.T) {
	source := newTestSite(t)
	output := filepath.Join(t.TempDir(), "output")
	dest := filepath.Join(t.TempDir(), "www")

	cfg := memoryConfig(t)
	cfg.Publishers = []config.PublisherConfig{
		{Type: "memory", Name: "scratch"},
		{Type: "filesystem", Name: "local", FSRoot: dest},
	}
	a := newTestApp(t, cfg)

	if _, err := a.Build(context.Background(), source, output, false); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	n, err := a.Publish(context.Background(), output, "local")
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if n != 2 {
		t.Errorf("published %d files, want 2", n)
	}
	for _, rel := range []string{"index.html", filepath.Join("hello", "index.html")} {
		if _, err := os.Stat(filepath.Join(dest, rel)); err != nil {
			t.Errorf("%s not published: %v", rel, err)
		}
	}

	if _, err := a.Publish(context.Background(), output, "missing"); err == nil {
		t.Error("expected error for unknown publisher")
	}
}

func TestGoupiApp_historyDisabled(t *testing.T) {
	cfg := config.Default(t.TempDir())
	a := newTestApp(t, cfg)

	if _, err := a.GetHistory(10); !errors.Is(err, ErrHistoryDisabled) {
		t.Errorf("GetHistory() error = %v, want ErrHistoryDisabled", err)
	}
	if _, _, err := a.GetRun("1"); !errors.Is(err, ErrHistoryDisabled) {
		t.Errorf("GetRun() error = %v, want ErrHistoryDisabled", err)
	}

	report, err := a.Build(context.Background(), newTestSite(t), filepath.Join(t.TempDir(), "output"), false)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if report.Count(goupi.PostBuilt) != 1 {
		t.Errorf("built = %d, want 1", report.Count(goupi.PostBuilt))
	}
}

func TestGoupiApp_GetRun_notFound(t *testing.T) {
	a := newTestApp(t, memoryConfig(t))
	for _, ref := range []string{"42", "run-42"} {
		if _, _, err := a.GetRun(ref); err == nil {
			t.Errorf("GetRun(%q) expected error for unknown run", ref)
		}
	}
}

func TestNewGoupiApp_badConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown history type", func(c *config.Config) { c.History.Type = "redis" }},
		{"sqlite without data dir", func(c *config.Config) { c.History = config.HistoryConfig{Type: "sqlite"} }},
		{"unknown log level", func(c *config.Config) { c.LogLevel = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default(t.TempDir())
			tt.mutate(cfg)
			if _, err := NewGoupiApp(cfg, io.Discard); err == nil {
				t.Error("expected error")
			}
		})
	}
}
