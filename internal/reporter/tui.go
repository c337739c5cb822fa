package reporter

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ppiankov/taskgraph/internal/task"
)

// TUI styles
var (
	headerStyle   = lipgloss.NewStyle().Bold(true)
	invalidStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	levelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14")) // cyan
	validStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	criticalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8")) // gray
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// ReportMsg replaces the report shown by a running TUIModel.
type ReportMsg FileReport

// TUIModel is the Bubbletea model for browsing a validation report.
type TUIModel struct {
	report       FileReport
	criticalOnly bool
	scrollOffset int
	width        int
	height       int
}

// NewTUIModel creates a TUI model showing fr.
func NewTUIModel(fr FileReport) TUIModel {
	return TUIModel{report: fr}
}

// Init implements tea.Model.
func (m TUIModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m TUIModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "c":
			m.criticalOnly = !m.criticalOnly
			m.scrollOffset = 0

		case "j", "down":
			m.scrollDown(1)

		case "k", "up":
			m.scrollUp(1)

		case "g", "home":
			m.scrollOffset = 0

		case "G", "end":
			m.scrollOffset = m.maxScroll()

		case "pgdown":
			m.scrollDown(m.visibleLines())

		case "pgup":
			m.scrollUp(m.visibleLines())
		}

	case ReportMsg:
		m.report = FileReport(msg)
		if max := m.maxScroll(); m.scrollOffset > max {
			m.scrollOffset = max
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

func (m *TUIModel) scrollDown(n int) {
	m.scrollOffset += n
	if max := m.maxScroll(); m.scrollOffset > max {
		m.scrollOffset = max
	}
}

func (m *TUIModel) scrollUp(n int) {
	m.scrollOffset -= n
	if m.scrollOffset < 0 {
		m.scrollOffset = 0
	}
}

func (m TUIModel) visibleLines() int {
	// header(2) + help(1) + scroll hints(2)
	avail := m.height - 5
	if avail < 3 {
		return 3
	}
	return avail
}

func (m TUIModel) maxScroll() int {
	total := len(m.buildLines())
	vis := m.visibleLines()
	if total <= vis {
		return 0
	}
	return total - vis
}

// View implements tea.Model.
func (m TUIModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	var b strings.Builder
	rep := m.report.Report

	header := fmt.Sprintf("taskgraph — %s — %d tasks  ", m.report.Source, rep.TotalTasks)
	b.WriteString(headerStyle.Render(header))
	if rep.IsValid {
		b.WriteString(validStyle.Render("valid"))
	} else {
		b.WriteString(invalidStyle.Render("cycle: " + strings.Join(rep.CircularDependencies.Cycle, " → ")))
	}
	b.WriteString("\n")
	b.WriteString(criticalStyle.Render(fmt.Sprintf("critical path %sh", FormatHours(rep.CriticalPath.TotalHours))))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %d levels  %d warnings", len(rep.ParallelTasks), len(rep.Diagnostics))))
	b.WriteString("\n")

	lines := m.buildLines()
	vis := m.visibleLines()
	start := min(m.scrollOffset, len(lines))
	end := min(start+vis, len(lines))

	used := 2
	if start > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  ↑ %d more above", start)))
		b.WriteString("\n")
		used++
	}
	for i := start; i < end; i++ {
		b.WriteString(lines[i])
		b.WriteString("\n")
		used++
	}
	if end < len(lines) {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  ↓ %d more below", len(lines)-end)))
		b.WriteString("\n")
		used++
	}

	for i := used; i < m.height-1; i++ {
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("  ↑↓/jk: scroll  g/G: top/bottom  c: critical only  q: quit"))
	return b.String()
}

// buildLines renders one header per level followed by its tasks.
// Critical tasks are highlighted; in critical-only mode the rest are hidden.
func (m TUIModel) buildLines() []string {
	rep := m.report.Report
	if rep == nil {
		return nil
	}
	sched := rep.CriticalPath.Schedule

	var lines []string
	for i, level := range rep.ParallelTasks {
		var rows []string
		for _, id := range level {
			s, ok := sched[id]
			if m.criticalOnly && !s.Critical {
				continue
			}
			rows = append(rows, fmtTaskLine(id, s, ok))
		}
		if len(rows) == 0 {
			continue
		}
		lines = append(lines, levelStyle.Render(fmt.Sprintf("  Level %d", i)))
		lines = append(lines, rows...)
	}
	return lines
}

func fmtTaskLine(id string, s task.TaskSchedule, scheduled bool) string {
	if !scheduled {
		return dimStyle.Render(fmt.Sprintf("    · %-25s unscheduled (in or behind a cycle)", id))
	}
	line := fmt.Sprintf("    %s %-25s %6sh → %-6sh slack %sh",
		marker(s.Critical), id, FormatHours(s.EarliestStart), FormatHours(s.EarliestFinish), FormatHours(s.Slack))
	if s.Critical {
		return criticalStyle.Render(line)
	}
	return line
}

func marker(critical bool) string {
	if critical {
		return "★"
	}
	return "·"
}

// RunTUI shows fr in a full-screen viewer until the user quits.
// Reports sent on updates replace the displayed one.
func RunTUI(fr FileReport, updates <-chan FileReport) error {
	p := tea.NewProgram(NewTUIModel(fr), tea.WithAltScreen())
	if updates != nil {
		go func() {
			for u := range updates {
				p.Send(ReportMsg(u))
			}
		}()
	}
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
