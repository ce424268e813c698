package cleanup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/berth-dev/mesa/internal/log"
)

// createMockRun creates a run directory named for ts.
func createMockRun(t *testing.T, runsDir string, ts time.Time) string {
	t.Helper()
	name := ts.Format(log.RunTimestampLayout)
	if err := os.MkdirAll(filepath.Join(runsDir, name), 0755); err != nil {
		t.Fatalf("creating mock run %s: %v", name, err)
	}
	return name
}

func exists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Stat(path)
	return err == nil
}

func TestPruneByAge(t *testing.T) {
	runsDir := t.TempDir()
	now := time.Now()
	old := createMockRun(t, runsDir, now.AddDate(0, 0, -60))
	recent := createMockRun(t, runsDir, now.AddDate(0, 0, -5))
	if err := os.MkdirAll(filepath.Join(runsDir, "scratch"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	pruned, err := PruneByAge(runsDir, 30, false)
	if err != nil {
		t.Fatalf("PruneByAge failed: %v", err)
	}
	if len(pruned) != 1 || pruned[0] != old {
		t.Errorf("pruned = %v, want [%s]", pruned, old)
	}
	if exists(t, filepath.Join(runsDir, old)) {
		t.Errorf("%s should be deleted", old)
	}
	if !exists(t, filepath.Join(runsDir, recent)) || !exists(t, filepath.Join(runsDir, "scratch")) {
		t.Error("recent and non-run directories should survive")
	}
}

func TestPruneKeepRecent(t *testing.T) {
	runsDir := t.TempDir()
	now := time.Now()
	d1 := createMockRun(t, runsDir, now.AddDate(0, 0, -4))
	d2 := createMockRun(t, runsDir, now.AddDate(0, 0, -3))
	createMockRun(t, runsDir, now.AddDate(0, 0, -2))
	createMockRun(t, runsDir, now.AddDate(0, 0, -1))

	pruned, err := PruneKeepRecent(runsDir, 2, false)
	if err != nil {
		t.Fatalf("PruneKeepRecent failed: %v", err)
	}
	if len(pruned) != 2 || pruned[0] != d1 || pruned[1] != d2 {
		t.Errorf("pruned = %v, want [%s %s]", pruned, d1, d2)
	}
	entries, _ := os.ReadDir(runsDir)
	if len(entries) != 2 {
		t.Errorf("%d dirs remain, want 2", len(entries))
	}

	pruned, err = PruneKeepRecent(runsDir, 5, false)
	if err != nil || len(pruned) != 0 {
		t.Errorf("keeping more than exist pruned %v, %v", pruned, err)
	}
}

func TestPruneDryRunDeletesNothing(t *testing.T) {
	runsDir := t.TempDir()
	now := time.Now()
	old := createMockRun(t, runsDir, now.AddDate(0, 0, -60))
	createMockRun(t, runsDir, now.AddDate(0, 0, -1))

	pruned, err := Prune(runsDir, Policy{Keep: 1, DryRun: true})
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if len(pruned) != 1 || pruned[0] != old {
		t.Errorf("pruned = %v, want [%s]", pruned, old)
	}
	if !exists(t, filepath.Join(runsDir, old)) {
		t.Error("dry run deleted a directory")
	}
}

func TestPruneSkipsProtectedRun(t *testing.T) {
	runsDir := t.TempDir()
	now := time.Now()
	a := createMockRun(t, runsDir, now.AddDate(0, 0, -3))
	b := createMockRun(t, runsDir, now.AddDate(0, 0, -2))
	createMockRun(t, runsDir, now.AddDate(0, 0, -1))

	pruned, err := Prune(runsDir, Policy{Keep: 1, Protect: a})
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if len(pruned) != 1 || pruned[0] != b {
		t.Errorf("pruned = %v, want [%s]", pruned, b)
	}
	if !exists(t, filepath.Join(runsDir, a)) {
		t.Errorf("protected run %s was removed", a)
	}
}

func TestPruneNonexistentDir(t *testing.T) {
	pruned, err := Prune("/nonexistent/path", Policy{MaxAgeDays: 30})
	if err != nil {
		t.Fatalf("expected nil error for nonexistent dir, got: %v", err)
	}
	if len(pruned) != 0 {
		t.Errorf("expected empty pruned list, got %v", pruned)
	}
}
