// Package tui is the interactive type-and-classify terminal UI.
package tui

import (
	"fmt"
	"os"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/cogdistort/internal/inference"
	"github.com/abhisek/cogdistort/internal/report"
	"github.com/abhisek/cogdistort/internal/ui/components"
	"github.com/abhisek/cogdistort/internal/ui/layout"
	"github.com/abhisek/cogdistort/internal/ui/theme"
)

const maxStatementLen = 500

// Model is the root Bubble Tea model. Each submitted statement is classified
// synchronously; the linear models are fast enough for a keypress.
type Model struct {
	classifier *inference.Classifier
	input      components.TextInput
	history    []inference.Result // newest first
	counts     map[string]int
	lastErr    string
	width      int
	height     int
}

// New creates a model that classifies with c.
func New(c *inference.Classifier) Model {
	return Model{
		classifier: c,
		input:      components.NewTextInput("Type a statement and press Enter", maxStatementLen),
		counts:     make(map[string]int),
	}
}

func (m Model) Init() tea.Cmd {
	return m.input.Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			m.submit()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit classifies the current input. Errors are kept for display and the
// input is left in place so it can be corrected.
func (m *Model) submit() {
	text := m.input.Value()
	if text == "" {
		return
	}

	pred, err := m.classifier.Classify(text)
	if err != nil {
		m.lastErr = err.Error()
		return
	}

	m.lastErr = ""
	m.history = append([]inference.Result{{
		Text:       text,
		Label:      pred.Label,
		Confidence: pred.Confidence,
	}}, m.history...)
	m.counts[pred.Label]++
	m.input.Reset()
}

// History returns the classified statements, newest first.
func (m Model) History() []inference.Result {
	return m.history
}

// Frequencies returns the label counts of this session.
func (m Model) Frequencies() []report.Frequency {
	return report.FromCounts(m.counts)
}

// Err returns the message of the last failed classification, if any.
func (m Model) Err() string {
	return m.lastErr
}

func (m Model) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	v.SetContent(m.render())
	return v
}

// render draws the full frame for the current terminal size.
func (m Model) render() string {
	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	header := layout.RenderHeader("Cognitive distortion classifier",
		fmt.Sprintf("%d classified", len(m.history)), m.width)
	footer := layout.RenderFooter([]layout.KeyHint{
		{Key: "Enter", Description: "Classify"},
		{Key: "Esc", Description: "Quit"},
	}, m.width)

	contentHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	content := m.renderContent(max(contentHeight, 0))

	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

func (m Model) renderContent(height int) string {
	var sb strings.Builder
	sb.WriteString("\n  ")
	sb.WriteString(m.input.View())
	sb.WriteString("\n")
	if m.lastErr != "" {
		sb.WriteString("  " + theme.ErrorText.Render(m.lastErr) + "\n")
	}
	sb.WriteString("\n")

	chartWidth := m.width - 4
	if !layout.IsCompactWidth(m.width) {
		chartWidth = m.width / 2
	}
	chart := report.RenderChart(m.Frequencies(), chartWidth)

	used := lipgloss.Height(sb.String()) + lipgloss.Height(chart) + 1
	rows := max(height-used, 1)

	if len(m.history) == 0 {
		sb.WriteString("  " + theme.Hint.Render("No statements classified yet.") + "\n")
	}
	for i, r := range m.history {
		if i >= rows {
			break
		}
		sb.WriteString("  " + m.renderEntry(r) + "\n")
	}

	sb.WriteString("\n")
	sb.WriteString(lipgloss.NewStyle().PaddingLeft(2).Render(chart))
	return sb.String()
}

func (m Model) renderEntry(r inference.Result) string {
	conf := theme.NoConfidence.Render(report.ConfidenceCell(r.Confidence))
	if r.Confidence != nil {
		conf = theme.Confidence.Render(report.ConfidenceCell(r.Confidence))
	}
	prefix := theme.Label.Render(r.Label) + "  " + conf + "  "
	textWidth := max(m.width-6-lipgloss.Width(prefix), 10)
	return prefix + theme.Body.Render(truncate(r.Text, textWidth))
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

// Run starts the Bubble Tea program.
func Run(c *inference.Classifier) error {
	p := tea.NewProgram(New(c))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
