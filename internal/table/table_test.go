package table

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/berth-dev/mesa/internal/observe"
)

// exclusionChecker verifies, from the event stream alone, that a
// philosopher only reports eating while both of its forks are reported held.
type exclusionChecker struct {
	observe.Nop
	mu    sync.Mutex
	seats int
	forks map[int]observe.ForkState
	bad   []string
}

func newExclusionChecker(seats int) *exclusionChecker {
	return &exclusionChecker{seats: seats, forks: make(map[int]observe.ForkState)}
}

func (c *exclusionChecker) OnForkState(id int, state observe.ForkState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.forks[id] = state
}

func (c *exclusionChecker) OnPhilosopherState(id int, state observe.PhilosopherState) {
	if state != observe.Eating {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	left, right := Forks(id, c.seats)
	if c.forks[left] != observe.ForkHeld || c.forks[right] != observe.ForkHeld {
		c.bad = append(c.bad, fmt.Sprintf("philosopher %d eating with forks %v/%v", id, c.forks[left], c.forks[right]))
	}
}

func (c *exclusionChecker) problems() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.bad...)
}

func TestTableNoDeadlock(t *testing.T) {
	defer goleak.VerifyNone(t)

	for _, policy := range []Policy{PolicyParity, PolicyOrdered} {
		for _, seats := range []int{2, 3, 5, 8} {
			t.Run(fmt.Sprintf("%s/%d", policy, seats), func(t *testing.T) {
				rec := observe.NewRecorder(0)
				checker := newExclusionChecker(seats)
				// Zero delays maximise contention: everyone is hungry at once.
				tbl, err := New(Config{Seats: seats, Policy: policy, Meals: 200}, observe.NewMulti(rec, checker))
				if err != nil {
					t.Fatalf("New failed: %v", err)
				}

				ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
				defer cancel()
				if err := tbl.Run(ctx); err != nil {
					t.Fatalf("Run failed: %v", err)
				}
				if ctx.Err() != nil {
					t.Fatalf("table stalled at %s: meals %v", tbl.Tally().Progress(), tbl.Meals())
				}
				if got := tbl.Total(); got != seats*200 {
					t.Errorf("Total = %d, want %d", got, seats*200)
				}
				if v := rec.Violations(); len(v) != 0 {
					t.Errorf("violations: %v", v[:min(len(v), 5)])
				}
				if p := checker.problems(); len(p) != 0 {
					t.Errorf("exclusion problems: %v", p[:min(len(p), 5)])
				}
			})
		}
	}
}

// stopAfter cancels a run once the table has eaten target meals.
type stopAfter struct {
	observe.Nop
	target int
	total  atomic.Int64
	cancel context.CancelFunc
}

func (s *stopAfter) OnMealCompleted(int, int) {
	if s.total.Add(1) == int64(s.target) {
		s.cancel()
	}
}

// unfairSeats returns the seats whose count strays more than tolerance
// (a fraction of the mean) from the mean.
func unfairSeats(meals []int, tolerance float64) []int {
	sum := 0
	for _, m := range meals {
		sum += m
	}
	mean := float64(sum) / float64(len(meals))
	var out []int
	for seat, m := range meals {
		if math.Abs(float64(m)-mean) > tolerance*mean {
			out = append(out, seat)
		}
	}
	return out
}

func TestUnfairSeats(t *testing.T) {
	if got := unfairSeats([]int{40, 38, 42, 41, 39}, 0.2); len(got) != 0 {
		t.Errorf("balanced counts flagged seats %v", got)
	}
	// A slow seat 0 that ate 10 while the others ate 47 or 48.
	got := unfairSeats([]int{10, 48, 47, 48, 47}, 0.2)
	if len(got) != 1 || got[0] != 0 {
		t.Errorf("unfairSeats = %v, want [0]", got)
	}
}

// Five philosophers with no meal limit run until the table has eaten 200
// meals; each seat's share must land within 20% of the mean.
func TestTableFairnessScenario(t *testing.T) {
	defer goleak.VerifyNone(t)

	const cycles = 200
	rec := observe.NewRecorder(0)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	stop := &stopAfter{target: cycles, cancel: cancel}

	tbl, err := New(Config{
		Seats:    5,
		Policy:   PolicyParity,
		ThinkMax: 50 * time.Millisecond,
		EatMax:   50 * time.Millisecond,
		Seed:     2024,
	}, observe.NewMulti(rec, stop))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := tbl.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		t.Fatalf("table stalled at %s: meals %v", tbl.Tally().Progress(), tbl.Meals())
	}

	meals := tbl.Meals()
	if total := tbl.Total(); total < cycles {
		t.Fatalf("Total = %d, want at least %d", total, cycles)
	}
	if bad := unfairSeats(meals, 0.2); len(bad) != 0 {
		_, _, mean := tbl.Tally().Spread()
		t.Errorf("seats %v outside 20%% of the mean %.1f: meals %v", bad, mean, meals)
	}
	for seat, n := range meals {
		if rec.Meals(seat) != n {
			t.Errorf("seat %d: observed %d meals, counted %d", seat, rec.Meals(seat), n)
		}
	}
	if v := rec.Violations(); len(v) != 0 {
		t.Errorf("violations: %v", v)
	}
}

func TestTableMakesProgressUntilCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	tbl, err := New(Config{Seats: 5, ThinkMax: time.Millisecond, EatMax: time.Millisecond, Seed: 9}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tbl.Run(ctx) }()

	waitFor(t, "running", tbl.Running)
	var samples []int
	for i := 0; i < 3; i++ {
		time.Sleep(50 * time.Millisecond)
		samples = append(samples, tbl.Total())
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for i := 1; i < len(samples); i++ {
		if samples[i] <= samples[i-1] {
			t.Errorf("no progress between samples: %v", samples)
		}
	}
	for i, s := range tbl.Forks().Snapshot() {
		if s != observe.ForkFree {
			t.Errorf("fork %d still %v after the table stopped", i, s)
		}
	}
}

func TestTableCanRestart(t *testing.T) {
	defer goleak.VerifyNone(t)

	tbl, err := New(Config{Seats: 3, Meals: 5}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := tbl.Run(context.Background()); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}
	// Limits are reached, so a second run returns at once without more meals.
	if err := tbl.Run(context.Background()); err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	if got := tbl.Total(); got != 15 {
		t.Errorf("Total = %d, want 15", got)
	}
}

func TestConfigValidate(t *testing.T) {
	_, err := New(Config{Seats: 1, ThinkMax: -time.Second, Policy: PolicyNaive}, nil)
	if err == nil {
		t.Fatal("New should reject an invalid config")
	}
	for _, want := range []string{"seats", "think delay", "naive"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %q", err, want)
		}
	}

	tbl, err := New(Config{Seats: 4}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if tbl.Config().Policy != PolicyParity {
		t.Errorf("default policy = %q, want parity", tbl.Config().Policy)
	}
}

func TestTallySpread(t *testing.T) {
	tally := NewTally(3, 0)
	tally.Record(0)
	tally.Record(0)
	tally.Record(2)
	lo, hi, mean := tally.Spread()
	if lo != 0 || hi != 2 || mean != 1 {
		t.Errorf("Spread = %d, %d, %v; want 0, 2, 1", lo, hi, mean)
	}
	if tally.Progress() != "[3]" || tally.IsComplete() {
		t.Errorf("unbounded tally: Progress %s, complete %v", tally.Progress(), tally.IsComplete())
	}
}
