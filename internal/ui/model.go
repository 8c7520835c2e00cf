// ABOUTME: Bubbletea model for the analysis viewer TUI
// ABOUTME: Defines viewer state, key handling and per-tab rendering
package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/floats"

	"github.com/mbakholdina/srt-drift-tracer/internal/analysis"
	"github.com/mbakholdina/srt-drift-tracer/internal/stats"
	"github.com/mbakholdina/srt-drift-tracer/internal/version"
)

// Tab selects what the viewer shows for the current report
type Tab int

const (
	TabSummary Tab = iota
	TabDrift
	TabRTT
	TabModel
	tabCount
)

func (t Tab) String() string {
	switch t {
	case TabSummary:
		return "Summary"
	case TabDrift:
		return "Drift"
	case TabRTT:
		return "RTT"
	case TabModel:
		return "SRT Model"
	default:
		return "Unknown"
	}
}

// maxStepLines bounds the step point listing on the model tab
const maxStepLines = 12

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	valueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	activeStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220")).Underline(true)
	inactiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle     = lipgloss.NewStyle().Faint(true)
)

// Model represents the TUI state
type Model struct {
	reports  []*analysis.Report
	selected int
	tab      Tab

	// Dashboard upload
	connected  bool
	serverName string
	upload     string

	showWarnings bool

	// Dimensions
	width  int
	height int
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case ReportMsg:
		if msg.Report != nil {
			m.reports = append(m.reports, msg.Report)
		}
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString(m.renderReportList())

	if report := m.current(); report != nil {
		b.WriteString(m.renderTabs())
		b.WriteString(m.renderBody(report))
		if m.showWarnings {
			b.WriteString(m.renderWarnings(report))
		}
	}

	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) current() *analysis.Report {
	if len(m.reports) == 0 {
		return nil
	}
	return m.reports[m.selected]
}

// renderHeader renders the title and upload status
func (m Model) renderHeader() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s %s", version.Product, version.Version)))
	b.WriteString("\n")

	if m.connected {
		b.WriteString(headerStyle.Render("Dashboard: "))
		b.WriteString(valueStyle.Render(m.serverName))
		b.WriteString("\n")
	}
	if m.upload != "" {
		b.WriteString(headerStyle.Render("Upload: "))
		b.WriteString(valueStyle.Render(m.upload))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

// renderReportList renders one line per analyzed log
func (m Model) renderReportList() string {
	if len(m.reports) == 0 {
		return valueStyle.Render("  No analyses yet") + "\n\n"
	}

	var b strings.Builder
	for i, r := range m.reports {
		cursor := "  "
		if i == m.selected {
			cursor = "> "
		}
		line := fmt.Sprintf("%s%s [%s/%s]", cursor, truncate(r.Name, 48), r.LocalClock, r.RemoteClock)
		switch {
		case r.Error != "":
			b.WriteString(errorStyle.Render(line + " failed"))
		case i == m.selected:
			b.WriteString(headerStyle.Render(line))
		default:
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderTabs() string {
	parts := make([]string, 0, tabCount)
	for t := Tab(0); t < tabCount; t++ {
		if t == m.tab {
			parts = append(parts, activeStyle.Render(t.String()))
		} else {
			parts = append(parts, inactiveStyle.Render(t.String()))
		}
	}
	return strings.Join(parts, "  ") + "\n\n"
}

func (m Model) renderBody(r *analysis.Report) string {
	if r.Error != "" {
		return errorStyle.Render(r.Error) + "\n\n"
	}

	switch m.tab {
	case TabDrift:
		return m.renderDrift(r)
	case TabRTT:
		return m.renderRTT(r)
	case TabModel:
		return m.renderModel(r)
	default:
		return m.renderSummary(r)
	}
}

func (m Model) renderSummary(r *analysis.Report) string {
	var b strings.Builder
	field := func(name, value string) {
		b.WriteString(headerStyle.Render(name + ": "))
		b.WriteString(valueStyle.Render(value))
		b.WriteString("\n")
	}
	field("Rows", fmt.Sprintf("%d", r.Rows))
	field("TSBPD Time Base", fmt.Sprintf("%d us", r.InitialBaseUs))
	field("Final Time Base", fmt.Sprintf("%d us", r.FinalBaseUs))
	field("RTT Base (RTT0)", fmt.Sprintf("%d us", r.RTTBaseUs))
	field("Wraps", fmt.Sprintf("%d", r.Wraps))
	if r.Adjusted != nil {
		field("Drift rate", fmt.Sprintf("%.3f ms/s over %.1f s", r.Adjusted.RateMsPerS, r.Adjusted.ElapsedS))
	}
	if len(r.Warnings) > 0 {
		b.WriteString(warnStyle.Render(fmt.Sprintf("%d warnings, press w to show", len(r.Warnings))))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderDrift(r *analysis.Report) string {
	var b strings.Builder
	for _, d := range []*stats.Drift{r.Raw, r.Adjusted} {
		if d == nil {
			continue
		}
		stats.PrintDrift(&b, *d)
		b.WriteString("\n")
	}
	if r.Result != nil && len(r.Result.Samples) > 0 {
		values := make([]float64, len(r.Result.Samples))
		for i, s := range r.Result.Samples {
			values[i] = s.RTTAdjustedDriftUs
		}
		b.WriteString(headerStyle.Render("Adjusted drift: "))
		b.WriteString(sparkline(values, m.sparkWidth()))
		b.WriteString("\n\n")
	}
	return b.String()
}

func (m Model) renderRTT(r *analysis.Report) string {
	if r.RTT == nil {
		return valueStyle.Render("No RTT statistics for this log") + "\n\n"
	}
	var b strings.Builder
	stats.PrintRTT(&b, *r.RTT)
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderModel(r *analysis.Report) string {
	if r.Result == nil || r.Result.Replica == nil {
		return valueStyle.Render("No model for this log") + "\n\n"
	}
	rep := r.Result.Replica

	var b strings.Builder
	b.WriteString(headerStyle.Render("Windows: "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%d, %d step points", rep.Windows, len(rep.Points))))
	b.WriteString("\n\n")

	for i, p := range rep.Points {
		if i == maxStepLines {
			b.WriteString(valueStyle.Render(fmt.Sprintf("  … %d more", len(rep.Points)-maxStepLines)))
			b.WriteString("\n")
			break
		}
		b.WriteString(fmt.Sprintf("  %10.3f s  %10.3f ms\n", p.ElapsedSeconds(), p.DriftUs/1000))
	}

	if len(rep.Points) > 0 {
		values := make([]float64, len(rep.Points))
		for i, p := range rep.Points {
			values[i] = p.DriftUs
		}
		b.WriteString("\n")
		b.WriteString(headerStyle.Render("Model drift: "))
		b.WriteString(sparkline(values, m.sparkWidth()))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderWarnings(r *analysis.Report) string {
	if len(r.Warnings) == 0 {
		return ""
	}
	var b strings.Builder
	for _, w := range r.Warnings {
		b.WriteString(warnStyle.Render("warning: " + w))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return helpStyle.Render("↑/↓:Log  ←/→:Tab  w:Warnings  q:Quit") + "\n"
}

func (m Model) sparkWidth() int {
	w := m.width - 20
	if w < 10 {
		w = 10
	}
	return w
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.reports)-1 {
			m.selected++
		}
	case "right", "l", "tab":
		m.tab = (m.tab + 1) % tabCount
	case "left", "h", "shift+tab":
		m.tab = (m.tab + tabCount - 1) % tabCount
	case "w":
		m.showWarnings = !m.showWarnings
	}

	return m, nil
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Connected != nil {
		m.connected = *msg.Connected
	}
	if msg.ServerName != "" {
		m.serverName = msg.ServerName
	}
	if msg.Upload != "" {
		m.upload = msg.Upload
	}
}

// StatusMsg updates the dashboard upload state
type StatusMsg struct {
	Connected  *bool
	ServerName string
	Upload     string
}

// ReportMsg adds a finished analysis to the viewer
type ReportMsg struct {
	Report *analysis.Report
}

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// sparkline renders values as a one-line chart at most width runes wide.
// Values are averaged into buckets when there are more values than runes.
func sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}
	if len(values) > width {
		buckets := make([]float64, width)
		for i := range buckets {
			lo := i * len(values) / width
			hi := (i + 1) * len(values) / width
			sum := 0.0
			for _, v := range values[lo:hi] {
				sum += v
			}
			buckets[i] = sum / float64(hi-lo)
		}
		values = buckets
	}

	lo, hi := floats.Min(values), floats.Max(values)

	out := make([]rune, len(values))
	for i, v := range values {
		level := 0
		if hi > lo {
			level = int((v - lo) / (hi - lo) * float64(len(sparkLevels)-1))
		}
		out[i] = sparkLevels[level]
	}
	return string(out)
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}
