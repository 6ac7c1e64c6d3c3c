package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/cogdistort/internal/ui/theme"
)

// Bar displays one labelled horizontal bar of a frequency chart.
type Bar struct {
	Label      string
	LabelWidth int
	Count      int
	Max        int
	Width      int
}

// NewBar creates a bar for count out of max, padding the label to labelWidth.
func NewBar(label string, labelWidth, count, max, width int) Bar {
	return Bar{
		Label:      label,
		LabelWidth: labelWidth,
		Count:      count,
		Max:        max,
		Width:      width,
	}
}

// Filled returns the number of filled cells for a bar of barWidth cells.
func (b Bar) Filled(barWidth int) int {
	if b.Max <= 0 || barWidth <= 0 {
		return 0
	}
	filled := b.Count * barWidth / b.Max
	if b.Count > 0 && filled == 0 {
		filled = 1
	}
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}
	return filled
}

// View renders the bar.
func (b Bar) View() string {
	label := b.Label
	if pad := b.LabelWidth - lipgloss.Width(label); pad > 0 {
		label += strings.Repeat(" ", pad)
	}
	result := theme.Body.Render(label) + "  "

	count := fmt.Sprintf("  %d", b.Count)
	barWidth := b.Width - lipgloss.Width(result) - len(count)
	if barWidth < 4 {
		barWidth = 4
	}

	filled := b.Filled(barWidth)
	result += theme.BarFilled.Render(strings.Repeat(" ", filled)) +
		theme.BarEmpty.Render(strings.Repeat(" ", barWidth-filled))

	result += lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Render(count)

	return result
}
