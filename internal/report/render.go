package report

import (
	"fmt"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/charmbracelet/x/ansi"

	"github.com/abhisek/cogdistort/internal/inference"
	"github.com/abhisek/cogdistort/internal/ui/components"
	"github.com/abhisek/cogdistort/internal/ui/theme"
)

// ChartTitle heads the frequency chart.
const ChartTitle = "Distribution of detected cognitive distortions"

const minTextColumn = 16

// ConfidenceCell renders a confidence as a percentage, or "n/a".
func ConfidenceCell(c *float64) string {
	if c == nil {
		return "n/a"
	}
	return FormatConfidence(c) + "%"
}

// RenderTable renders results as a bordered table no wider than width. Long
// statements are truncated with an ellipsis.
func RenderTable(results []inference.Result, width int) string {
	labelWidth := len("Label")
	for _, r := range results {
		labelWidth = max(labelWidth, lipgloss.Width(r.Label))
	}
	indexWidth := len(strconv.Itoa(len(results)))

	// Borders and one cell of padding on each side of four columns.
	textWidth := width - indexWidth - labelWidth - len("Confidence") - 4*2 - 5
	textWidth = max(textWidth, minTextColumn)

	rows := make([][]string, len(results))
	for i, r := range results {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			ansi.Truncate(r.Text, textWidth, "…"),
			r.Label,
			ConfidenceCell(r.Confidence),
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.Border)).
		Headers("#", "Text", "Label", "Confidence").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return theme.TableHeader
			}
			if row < 0 || row >= len(results) {
				return theme.TableCell
			}
			switch col {
			case 2:
				return theme.Label.Padding(0, 1)
			case 3:
				if results[row].Confidence == nil {
					return theme.NoConfidence.Padding(0, 1)
				}
				return theme.Confidence.Padding(0, 1).Align(lipgloss.Right)
			}
			return theme.TableCell
		})

	return t.String()
}

// RenderChart renders one horizontal bar per label, scaled to the most
// frequent label.
func RenderChart(freqs []Frequency, width int) string {
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(ChartTitle))
	sb.WriteString("\n")

	if len(freqs) == 0 {
		sb.WriteString(theme.Hint.Render("No results to chart."))
		return sb.String()
	}

	labelWidth, most := 0, 0
	for _, f := range freqs {
		labelWidth = max(labelWidth, lipgloss.Width(f.Label))
		most = max(most, f.Count)
	}
	labelWidth = min(labelWidth, width/2)

	for _, f := range freqs {
		label := ansi.Truncate(f.Label, labelWidth, "…")
		sb.WriteString("\n")
		sb.WriteString(components.NewBar(label, labelWidth, f.Count, most, width).View())
	}

	total := Total(freqs)
	sb.WriteString("\n\n")
	sb.WriteString(theme.Hint.Render(fmt.Sprintf("%d statements, %d distinct labels", total, len(freqs))))
	return sb.String()
}
