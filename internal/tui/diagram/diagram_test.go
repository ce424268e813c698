package diagram

import (
	"strings"
	"testing"
)

func labels(texts ...string) []Label {
	out := make([]Label, len(texts))
	for i, t := range texts {
		out[i] = Label{Text: t}
	}
	return out
}

func TestRingPlacesEverySeatAndFork(t *testing.T) {
	seats := labels("P0", "P1", "P2", "P3", "P4")
	forks := labels("a", "b", "c", "d", "e")
	out := Ring(seats, forks, 4)

	for _, l := range append(seats, forks...) {
		if !strings.Contains(out, l.Text) {
			t.Errorf("diagram missing %q:\n%s", l.Text, out)
		}
	}
	if lines := strings.Count(out, "\n") + 1; lines != 9 {
		t.Errorf("diagram has %d rows, want 9", lines)
	}
}

func TestRingSeatZeroOnTop(t *testing.T) {
	out := Ring(labels("P0", "P1", "P2"), nil, 3)
	first := strings.SplitN(out, "\n", 2)[0]
	if !strings.Contains(first, "P0") {
		t.Errorf("seat 0 should be on the top row, got %q", first)
	}
}

func TestRingRenderDoesNotShiftLayout(t *testing.T) {
	plain := Ring(labels("P0", "P1"), nil, 2)
	bracket := func(s ...string) string { return "<" + strings.Join(s, "") + ">" }
	styled := Ring([]Label{{Text: "P0", Render: bracket}, {Text: "P1", Render: bracket}}, nil, 2)

	stripped := strings.NewReplacer("<", "", ">", "").Replace(styled)
	if stripped != plain {
		t.Errorf("rendering changed the layout:\n%s\nvs\n%s", stripped, plain)
	}
}

func TestRingEmpty(t *testing.T) {
	if out := Ring(nil, nil, 3); out != "" {
		t.Errorf("Ring(nil) = %q, want empty", out)
	}
}
