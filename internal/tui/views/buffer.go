package views

import (
	"fmt"
	"strings"

	"github.com/berth-dev/mesa/internal/buffer"
	"github.com/berth-dev/mesa/internal/tui"
	"github.com/berth-dev/mesa/internal/ui"
)

// RenderBuffer draws the ring's slots in storage order with the read and
// write positions marked, followed by the producer and consumer counters.
func RenderBuffer(s tui.State, snap buffer.Snapshot, width int) string {
	var b strings.Builder
	b.WriteString(tui.TitleStyle.Render("Ring buffer"))
	b.WriteString("\n\n")

	if snap.Capacity == 0 {
		b.WriteString(tui.DimStyle.Render("no buffer"))
		return tui.BoxStyle.Width(boxWidth(width)).Render(b.String())
	}

	cells, marks := slotCells(snap)
	b.WriteString(strings.Join(cells, " "))
	b.WriteString("\n")
	b.WriteString(tui.DimStyle.Render(strings.Join(marks, " ")))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "%s %d/%d\n", ui.Gauge(snap.Count, snap.Capacity), snap.Count, snap.Capacity)
	fmt.Fprintf(&b, "%s %d   %s %d\n",
		tui.DimStyle.Render("Produced:"), s.Produced,
		tui.DimStyle.Render("Consumed:"), s.Consumed)
	fmt.Fprintf(&b, "%s %d   %s %d\n",
		tui.DimStyle.Render("Producer waits:"), s.ProducerWait,
		tui.DimStyle.Render("Consumer waits:"), s.ConsumerWait)
	b.WriteString("\n")
	b.WriteString(agentLine(s, "producer", "p"))
	b.WriteString(agentLine(s, "consumer", "c"))

	return tui.BoxStyle.Width(boxWidth(width)).Render(b.String())
}

// slotCells renders each slot as a fixed-width cell and a marker row below
// it: "r" for the next read, "w" for the next write, "rw" when they meet.
func slotCells(snap buffer.Snapshot) (cells, marks []string) {
	values := make([]string, snap.Capacity)
	for i, v := range snap.Items {
		values[(snap.Head+i)%snap.Capacity] = fmt.Sprintf("%2d", v)
	}
	for i, v := range values {
		if v == "" {
			cells = append(cells, tui.SlotEmptyStyle.Render("[  ]"))
		} else {
			cells = append(cells, tui.SlotFullStyle.Render("["+v+"]"))
		}

		mark := ""
		if i == snap.Head {
			mark += "r"
		}
		if i == snap.Tail {
			mark += "w"
		}
		marks = append(marks, fmt.Sprintf("%-4s", " "+mark))
	}
	return cells, marks
}
