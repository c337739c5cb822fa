package reporter

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ppiankov/taskgraph/internal/history"
	"github.com/ppiankov/taskgraph/internal/task"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorDim    = "\033[2m"
)

// FileReport pairs a validation report with the file it came from.
type FileReport struct {
	Source string
	Report *task.Report
}

// TextReporter writes human-readable output to a writer.
type TextReporter struct {
	w     io.Writer
	color bool
}

// NewTextReporter creates a text reporter.
// If w is nil, defaults to os.Stdout.
// color enables ANSI codes.
func NewTextReporter(w io.Writer, color bool) *TextReporter {
	if w == nil {
		w = os.Stdout
	}
	return &TextReporter{w: w, color: color}
}

// PrintReport writes the full analysis of one task list.
func (r *TextReporter) PrintReport(fr FileReport) {
	rep := fr.Report
	status := r.c(colorGreen) + "valid" + r.c(colorReset)
	if !rep.IsValid {
		status = r.c(colorRed) + "INVALID" + r.c(colorReset)
	}
	fmt.Fprintf(r.w, "%s — %d tasks, %s\n\n", fr.Source, rep.TotalTasks, status)

	if rep.CircularDependencies.HasCycle {
		r.PrintCycle(rep.CircularDependencies)
	}
	r.PrintCriticalPath(rep.CriticalPath, rep.IsValid)
	r.PrintLevels(rep.ParallelTasks, rep.IsValid)
	r.printDiagnostics(rep.Diagnostics)
}

// PrintCycle writes a cycle check result.
func (r *TextReporter) PrintCycle(res task.CycleResult) {
	if !res.HasCycle {
		fmt.Fprintf(r.w, "  %sNO CYCLE%s  %s\n\n", r.c(colorGreen), r.c(colorReset), res.Suggestion)
		return
	}
	fmt.Fprintf(r.w, "  %sCYCLE%s  %s\n", r.c(colorRed), r.c(colorReset), strings.Join(res.Cycle, " → "))
	fmt.Fprintf(r.w, "    %s\n\n", res.Suggestion)
}

// PrintCriticalPath writes the critical path with per-task timings.
// valid=false marks the result as partial.
func (r *TextReporter) PrintCriticalPath(cp task.CriticalPathResult, valid bool) {
	label := "CRITICAL PATH"
	if !valid {
		label += " (partial: acyclic tasks only)"
	}
	fmt.Fprintf(r.w, "  %s%s  [%sh]%s\n", r.c(colorCyan), label, FormatHours(cp.TotalHours), r.c(colorReset))
	if len(cp.Path) == 0 {
		fmt.Fprintf(r.w, "    %s(none)%s\n\n", r.c(colorDim), r.c(colorReset))
		return
	}
	for _, id := range cp.Path {
		s := cp.Schedule[id]
		fmt.Fprintf(r.w, "    %-25s %6sh → %sh\n", id, FormatHours(s.EarliestStart), FormatHours(s.EarliestFinish))
	}
	fmt.Fprintln(r.w)
}

// PrintLevels writes the parallel execution levels.
func (r *TextReporter) PrintLevels(levels [][]string, valid bool) {
	label := "LEVELS"
	if !valid {
		label += " (unreliable: graph has a cycle)"
	}
	fmt.Fprintf(r.w, "  %s%s  [%d]%s\n", r.c(colorCyan), label, len(levels), r.c(colorReset))
	for i, level := range levels {
		fmt.Fprintf(r.w, "    L%-3d %s\n", i, strings.Join(level, ", "))
	}
	fmt.Fprintln(r.w)
}

func (r *TextReporter) printDiagnostics(diags []task.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	fmt.Fprintf(r.w, "  %sWARNINGS  [%d]%s\n", r.c(colorYellow), len(diags), r.c(colorReset))
	for _, d := range diags {
		fmt.Fprintf(r.w, "    %s%s%s\n", r.c(colorDim), d.String(), r.c(colorReset))
	}
	fmt.Fprintln(r.w)
}

// PrintSummary writes the final summary line across several files.
func (r *TextReporter) PrintSummary(reports []FileReport) {
	var invalid, warnings, tasks int
	for _, fr := range reports {
		tasks += fr.Report.TotalTasks
		warnings += len(fr.Report.Diagnostics)
		if !fr.Report.IsValid {
			invalid++
		}
	}

	fmt.Fprintf(r.w, "%s--- Summary ---%s\n", r.c(colorCyan), r.c(colorReset))
	fmt.Fprintf(r.w, "Files: %d  Tasks: %d  ", len(reports), tasks)
	fmt.Fprintf(r.w, "%sValid: %d%s  ", r.c(colorGreen), len(reports)-invalid, r.c(colorReset))
	fmt.Fprintf(r.w, "%sInvalid: %d%s  ", r.c(colorRed), invalid, r.c(colorReset))
	fmt.Fprintf(r.w, "%sWarnings: %d%s\n", r.c(colorYellow), warnings, r.c(colorReset))
}

// PrintHistory writes stored reports as a table, newest first.
func (r *TextReporter) PrintHistory(entries []history.Entry, now time.Time) {
	if len(entries) == 0 {
		fmt.Fprintf(r.w, "%sno stored reports%s\n", r.c(colorDim), r.c(colorReset))
		return
	}
	fmt.Fprintf(r.w, "%-36s  %-8s  %6s  %8s  %-16s  %s\n", "ID", "STATUS", "TASKS", "CRITICAL", "AGE", "SOURCE")
	for _, e := range entries {
		status := r.c(colorGreen) + fmt.Sprintf("%-8s", "valid") + r.c(colorReset)
		if !e.IsValid {
			status = r.c(colorRed) + fmt.Sprintf("%-8s", "cycle") + r.c(colorReset)
		}
		fmt.Fprintf(r.w, "%-36s  %s  %6d  %7sh  %-16s  %s\n",
			e.ID, status, e.TotalTasks, FormatHours(e.CriticalHours),
			humanize.RelTime(e.CreatedAt, now, "ago", "from now"), e.Source)
	}
}

func (r *TextReporter) c(code string) string {
	if !r.color {
		return ""
	}
	return code
}

// FormatHours renders an hour count without trailing zeros: 7, 2.5, 0.125.
func FormatHours(h float64) string {
	return humanize.FtoaWithDigits(h, 3)
}
