// Package testutil provides test helper utilities for mesa tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/berth-dev/mesa/internal/config"
	"github.com/berth-dev/mesa/internal/log"
)

// TempProject creates a temporary directory with the given files and returns its path.
// Files is a map of relative path -> content. Directories are created as needed.
// The directory is automatically cleaned up when the test finishes.
func TempProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()

	for relPath, content := range files {
		absPath := filepath.Join(dir, relPath)
		if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			t.Fatalf("creating directory for %s: %v", relPath, err)
		}
		if err := os.WriteFile(absPath, []byte(content), 0644); err != nil {
			t.Fatalf("writing %s: %v", relPath, err)
		}
	}

	return dir
}

// MesaProject returns file contents for a project initialized with cfg.
func MesaProject(t *testing.T, cfg *config.Config) map[string]string {
	t.Helper()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshalling config: %v", err)
	}
	return map[string]string{
		".mesa/config.yaml": string(data),
		".mesa/runs/.keep":  "",
	}
}

// FastConfig returns a config with no delays, small enough for tests to
// finish in milliseconds.
func FastConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Seed = 1
	cfg.Table.ThinkMaxMs = 0
	cfg.Table.EatMaxMs = 0
	cfg.Buffer.ProduceMaxMs = 0
	cfg.Buffer.ConsumeMaxMs = 0
	cfg.Buffer.Values = config.ValuesSequential
	return cfg
}

// RunDir writes events to .mesa/runs/<started>/events.jsonl under root,
// stamped a millisecond apart from started, and returns the run directory.
func RunDir(t *testing.T, root string, started time.Time, events []log.LogEvent) string {
	t.Helper()
	dir := filepath.Join(config.Dir(root), "runs", started.Format(log.RunTimestampLayout))
	logger, err := log.NewLogger(dir, "test-run")
	if err != nil {
		t.Fatalf("creating run: %v", err)
	}
	for i, e := range events {
		e.Time = started.Add(time.Duration(i) * time.Millisecond)
		if err := logger.Append(e); err != nil {
			t.Fatalf("appending event: %v", err)
		}
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("closing run: %v", err)
	}
	return dir
}
