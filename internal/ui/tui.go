// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program for the analysis viewer
package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mbakholdina/srt-drift-tracer/internal/analysis"
)

// NewModel creates a new TUI model showing reports
func NewModel(reports ...*analysis.Report) Model {
	return Model{
		reports: reports,
		tab:     TabSummary,
	}
}

// NewProgram creates the viewer program. Callers may Send ReportMsg and
// StatusMsg values before or while it runs.
func NewProgram(m Model) *tea.Program {
	return tea.NewProgram(m, tea.WithAltScreen())
}

// Run shows reports until the user quits
func Run(reports []*analysis.Report) error {
	_, err := NewProgram(NewModel(reports...)).Run()
	return err
}
