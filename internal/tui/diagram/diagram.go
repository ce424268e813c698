// Package diagram draws the dining table as text: philosophers spaced
// around a circle with each fork between the two seats that share it.
package diagram

import (
	"math"
	"strings"
	"unicode/utf8"
)

// Label is one mark on the diagram. Render, if set, decorates Text after
// layout so escape codes never disturb the geometry.
type Label struct {
	Text   string
	Render func(...string) string
}

func (l Label) width() int {
	return utf8.RuneCountInString(l.Text)
}

func (l Label) String() string {
	if l.Render == nil {
		return l.Text
	}
	return l.Render(l.Text)
}

// Ring lays out seats and forks on a circle of the given radius in rows.
// Seat i sits at 12 o'clock plus i steps clockwise; fork i sits halfway
// between seat i-1 and seat i, matching a table where seat i's left fork
// is fork i. forks may be nil.
func Ring(seats, forks []Label, radius int) string {
	n := len(seats)
	if n == 0 {
		return ""
	}
	if radius < 2 {
		radius = 2
	}

	labelWidth := 0
	for _, s := range seats {
		labelWidth = max(labelWidth, s.width())
	}

	// Terminal cells are about twice as tall as they are wide.
	rows := 2*radius + 1
	cols := 4*radius + 1 + 2*labelWidth
	cx, cy := float64(cols/2), float64(radius)

	grid := make([][]string, rows)
	for r := range grid {
		grid[r] = make([]string, cols)
		for c := range grid[r] {
			grid[r][c] = " "
		}
	}

	place := func(angle float64, scale float64, l Label) {
		x := cx + scale*2*float64(radius)*math.Cos(angle)
		y := cy + scale*float64(radius)*math.Sin(angle)
		row := int(math.Round(y))
		col := int(math.Round(x)) - l.width()/2
		if row < 0 || row >= rows {
			return
		}
		col = max(0, min(col, cols-l.width()))
		grid[row][col] = l.String()
		for i := 1; i < l.width(); i++ {
			grid[row][col+i] = ""
		}
	}

	step := 2 * math.Pi / float64(n)
	for i, s := range seats {
		place(-math.Pi/2+step*float64(i), 1, s)
	}
	for i, f := range forks {
		if i >= n {
			break
		}
		place(-math.Pi/2+step*float64(i)-step/2, 0.6, f)
	}

	var b strings.Builder
	for r, row := range grid {
		line := strings.TrimRight(strings.Join(row, ""), " ")
		b.WriteString(line)
		if r < rows-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
