package reporter

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/taskgraph/internal/history"
	"github.com/ppiankov/taskgraph/internal/task"
)

func validReport() FileReport {
	return FileReport{
		Source: "shop.json",
		Report: task.Validate([]task.Task{
			{ID: "t1", EstimatedHours: 2},
			{ID: "t2", Dependencies: []string{"t1"}, EstimatedHours: 3},
			{ID: "t3", Dependencies: []string{"t1"}, EstimatedHours: 5},
			{ID: "t4", Dependencies: []string{"t2", "t3", "ghost"}, EstimatedHours: 1},
		}),
	}
}

func cyclicReport() FileReport {
	return FileReport{
		Source: "loop.json",
		Report: task.Validate([]task.Task{
			{ID: "a", Dependencies: []string{"c"}, EstimatedHours: 1},
			{ID: "b", Dependencies: []string{"a"}, EstimatedHours: 1},
			{ID: "c", Dependencies: []string{"b"}, EstimatedHours: 1},
		}),
	}
}

func TestTextReporter_PrintReport(t *testing.T) {
	var buf bytes.Buffer
	r := NewTextReporter(&buf, false)
	r.PrintReport(validReport())

	out := buf.String()
	for _, want := range []string{
		"shop.json — 4 tasks, valid",
		"CRITICAL PATH  [8h]",
		"L1   t2, t3",
		`task "t4" depends on unknown task "ghost"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "CYCLE") {
		t.Error("valid report must not print a cycle section")
	}
}

func TestTextReporter_PrintReportCycle(t *testing.T) {
	var buf bytes.Buffer
	r := NewTextReporter(&buf, false)
	r.PrintReport(cyclicReport())

	out := buf.String()
	if !strings.Contains(out, "INVALID") {
		t.Error("expected INVALID status")
	}
	if !strings.Contains(out, "CYCLE  a → c → b → a") {
		t.Errorf("expected cycle line, got:\n%s", out)
	}
	if !strings.Contains(out, "unreliable") {
		t.Error("expected levels to be marked unreliable")
	}
}

func TestTextReporter_PrintSummary(t *testing.T) {
	var buf bytes.Buffer
	r := NewTextReporter(&buf, false)
	r.PrintSummary([]FileReport{validReport(), cyclicReport()})

	out := buf.String()
	if !strings.Contains(out, "Files: 2  Tasks: 7") {
		t.Errorf("expected totals, got: %s", out)
	}
	if !strings.Contains(out, "Invalid: 1") {
		t.Error("expected invalid count")
	}
	if !strings.Contains(out, "Warnings: 1") {
		t.Error("expected warning count")
	}
}

func TestTextReporter_NoColor(t *testing.T) {
	var buf bytes.Buffer
	r := NewTextReporter(&buf, false)
	r.PrintReport(cyclicReport())

	if strings.Contains(buf.String(), "\033[") {
		t.Error("expected no ANSI codes when color is false")
	}
}

func TestTextReporter_Color(t *testing.T) {
	var buf bytes.Buffer
	r := NewTextReporter(&buf, true)
	r.PrintReport(cyclicReport())

	if !strings.Contains(buf.String(), colorRed) {
		t.Error("expected red ANSI code for an invalid report")
	}
}

func TestFormatHours(t *testing.T) {
	cases := map[float64]string{
		0:     "0",
		7:     "7",
		2.5:   "2.5",
		0.125: "0.125",
		1.3:   "1.3",
	}
	for in, want := range cases {
		if got := FormatHours(in); got != want {
			t.Errorf("FormatHours(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestWriteJSON_Single(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, []FileReport{validReport()}); err != nil {
		t.Fatal(err)
	}

	var loaded task.Report
	if err := json.Unmarshal(buf.Bytes(), &loaded); err != nil {
		t.Fatalf("parse report: %v", err)
	}
	if !loaded.IsValid || loaded.TotalTasks != 4 {
		t.Errorf("unexpected report: %+v", loaded)
	}
	if loaded.CriticalPath.TotalHours != 8 {
		t.Errorf("expected 8 hours, got %v", loaded.CriticalPath.TotalHours)
	}
}

func TestWriteJSON_Multiple(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, []FileReport{validReport(), cyclicReport()}); err != nil {
		t.Fatal(err)
	}

	var loaded []struct {
		Source string      `json:"source"`
		Report task.Report `json:"report"`
	}
	if err := json.Unmarshal(buf.Bytes(), &loaded); err != nil {
		t.Fatalf("parse reports: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(loaded))
	}
	if loaded[1].Source != "loop.json" || loaded[1].Report.IsValid {
		t.Errorf("unexpected second report: %+v", loaded[1])
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	err := WriteFile(path, func(w io.Writer) error {
		return WriteJSON(w, []FileReport{cyclicReport()})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var loaded task.Report
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("parse report: %v", err)
	}
	if !loaded.CircularDependencies.HasCycle {
		t.Error("expected cycle in written report")
	}
}

func TestWriteFile_Errors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no", "such", "dir", "report.json")
	if err := WriteFile(missing, func(io.Writer) error { return nil }); err == nil {
		t.Error("expected error for unwritable path")
	}

	boom := errors.New("boom")
	path := filepath.Join(t.TempDir(), "report.json")
	if err := WriteFile(path, func(io.Writer) error { return boom }); !errors.Is(err, boom) {
		t.Errorf("expected write error, got %v", err)
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteYAML(&buf, []FileReport{validReport()}); err != nil {
		t.Fatal(err)
	}

	var loaded task.Report
	if err := yaml.Unmarshal(buf.Bytes(), &loaded); err != nil {
		t.Fatalf("parse yaml: %v", err)
	}
	if len(loaded.ParallelTasks) != 3 {
		t.Errorf("expected 3 levels, got %v", loaded.ParallelTasks)
	}
	if !strings.Contains(buf.String(), "isValid: true") {
		t.Errorf("expected camelCase keys, got:\n%s", buf.String())
	}
}

func TestTextReporter_PrintCycleNone(t *testing.T) {
	var buf bytes.Buffer
	r := NewTextReporter(&buf, false)
	r.PrintCycle(task.DetectCycle([]task.Task{{ID: "a"}}))

	if !strings.Contains(buf.String(), "NO CYCLE  No circular dependencies found") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestTextReporter_PrintHistory(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []history.Entry{
		{ID: "11111111-2222-3333-4444-555555555555", Source: "shop.json", CreatedAt: now.Add(-3 * time.Hour), IsValid: true, TotalTasks: 4, CriticalHours: 8},
		{ID: "66666666-7777-8888-9999-000000000000", Source: "loop.json", CreatedAt: now.Add(-48 * time.Hour), TotalTasks: 3},
	}

	var buf bytes.Buffer
	r := NewTextReporter(&buf, false)
	r.PrintHistory(entries, now)

	out := buf.String()
	for _, want := range []string{"3 hours ago", "2 days ago", "shop.json", "cycle", "8h"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestTextReporter_PrintHistoryEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewTextReporter(&buf, false).PrintHistory(nil, time.Now())

	if !strings.Contains(buf.String(), "no stored reports") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}
