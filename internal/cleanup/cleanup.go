// Package cleanup prunes old run directories under .mesa/runs.
package cleanup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/berth-dev/mesa/internal/log"
)

// Policy selects which runs to remove. Keep takes precedence over
// MaxAgeDays when both are set.
type Policy struct {
	MaxAgeDays int
	Keep       int
	DryRun     bool
	// Protect names a run that is never removed, typically the one in
	// progress.
	Protect string
}

type run struct {
	name    string
	started time.Time
}

// listRuns returns timestamp-named run directories, oldest first. A missing
// runsDir yields no runs and no error.
func listRuns(runsDir string) ([]run, error) {
	entries, err := os.ReadDir(runsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading runs directory: %w", err)
	}

	var runs []run
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		// Run directories are named in local time.
		t, parseErr := time.ParseInLocation(log.RunTimestampLayout, entry.Name(), time.Local)
		if parseErr != nil {
			continue
		}
		runs = append(runs, run{name: entry.Name(), started: t})
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].name < runs[j].name })
	return runs, nil
}

// Prune removes the runs p selects and returns their names, oldest first.
// In dry-run mode nothing is deleted.
func Prune(runsDir string, p Policy) ([]string, error) {
	runs, err := listRuns(runsDir)
	if err != nil {
		return nil, err
	}

	var doomed []run
	switch {
	case p.Keep > 0:
		if len(runs) > p.Keep {
			doomed = runs[:len(runs)-p.Keep]
		}
	case p.MaxAgeDays > 0:
		cutoff := time.Now().AddDate(0, 0, -p.MaxAgeDays)
		for _, r := range runs {
			if r.started.Before(cutoff) {
				doomed = append(doomed, r)
			}
		}
	}

	var pruned []string
	for _, r := range doomed {
		if r.name == p.Protect {
			continue
		}
		if !p.DryRun {
			if rmErr := os.RemoveAll(filepath.Join(runsDir, r.name)); rmErr != nil {
				return pruned, fmt.Errorf("removing %s: %w", r.name, rmErr)
			}
		}
		pruned = append(pruned, r.name)
	}
	return pruned, nil
}

// PruneByAge removes runs started more than maxAgeDays ago.
func PruneByAge(runsDir string, maxAgeDays int, dryRun bool) ([]string, error) {
	return Prune(runsDir, Policy{MaxAgeDays: maxAgeDays, DryRun: dryRun})
}

// PruneKeepRecent removes all but the keep most recent runs.
func PruneKeepRecent(runsDir string, keep int, dryRun bool) ([]string, error) {
	return Prune(runsDir, Policy{Keep: keep, DryRun: dryRun})
}
