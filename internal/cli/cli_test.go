package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/taskgraph/internal/history"
	"github.com/ppiankov/taskgraph/internal/task"
)

const shopTasks = `{"tasks": [
	{"id": "t1", "estimatedHours": 2},
	{"id": "t2", "dependencies": ["t1"], "estimatedHours": 3},
	{"id": "t3", "dependencies": ["t1"], "estimatedHours": 5},
	{"id": "t4", "dependencies": ["t2", "t3"], "estimatedHours": 1}
]}`

const loopTasks = `[
	{"id": "A", "dependencies": "B"},
	{"id": "B", "dependencies": "C"},
	{"id": "C", "dependencies": "A"}
]`

const danglingTasks = `[{"id": "a", "dependencies": ["ghost"], "estimatedHours": 1}]`

// execute runs the root command with a config path that does not exist,
// so only defaults and TASKGRAPH_* variables apply.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.yml")}, args...))
	err = root.Execute()
	return out.String(), errOut.String(), err
}

func writeTasks(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestValidate_Valid(t *testing.T) {
	path := writeTasks(t, "shop.json", shopTasks)

	out, _, err := execute(t, "validate", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "4 tasks, valid") {
		t.Errorf("expected valid status, got:\n%s", out)
	}
	if !strings.Contains(out, "[8h]") {
		t.Errorf("expected critical path length, got:\n%s", out)
	}
}

func TestValidate_CycleIsInvalidGraph(t *testing.T) {
	path := writeTasks(t, "loop.json", loopTasks)

	_, _, err := execute(t, "validate", path)
	var invalid *InvalidGraphError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected *InvalidGraphError, got %v", err)
	}
	if !strings.Contains(err.Error(), "A -> B -> C -> A") {
		t.Errorf("expected cycle in error, got %q", err)
	}
}

func TestValidate_Strict(t *testing.T) {
	path := writeTasks(t, "dangling.json", danglingTasks)

	if _, _, err := execute(t, "validate", path); err != nil {
		t.Fatalf("dangling references must pass without --strict: %v", err)
	}

	_, _, err := execute(t, "validate", "--strict", path)
	var invalid *InvalidGraphError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected *InvalidGraphError with --strict, got %v", err)
	}
	if !strings.Contains(err.Error(), `unknown task "ghost"`) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_StrictFromEnv(t *testing.T) {
	t.Setenv("TASKGRAPH_STRICT", "true")
	path := writeTasks(t, "dangling.json", danglingTasks)

	_, _, err := execute(t, "validate", path)
	var invalid *InvalidGraphError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected strict mode from environment, got %v", err)
	}
}

func TestValidate_MultipleFilesJSON(t *testing.T) {
	a := writeTasks(t, "shop.json", shopTasks)
	b := writeTasks(t, "tasks.yaml", "tasks:\n  - id: x\n    estimatedHours: 4\n")

	out, _, err := execute(t, "validate", "--format", "json", a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var reports []struct {
		Source string      `json:"source"`
		Report task.Report `json:"report"`
	}
	if err := json.Unmarshal([]byte(out), &reports); err != nil {
		t.Fatalf("parse output: %v\n%s", err, out)
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	if reports[0].Source != a || reports[1].Source != b {
		t.Errorf("reports out of order: %s, %s", reports[0].Source, reports[1].Source)
	}
	if reports[1].Report.CriticalPath.TotalHours != 4 {
		t.Errorf("yaml file: expected 4 hours, got %v", reports[1].Report.CriticalPath.TotalHours)
	}
}

func TestValidate_TextSummaryForMultipleFiles(t *testing.T) {
	a := writeTasks(t, "shop.json", shopTasks)
	b := writeTasks(t, "loop.json", loopTasks)

	out, _, err := execute(t, "validate", a, b)
	if err == nil {
		t.Fatal("expected error for the cyclic file")
	}
	if !strings.Contains(out, "Files: 2  Tasks: 7") {
		t.Errorf("expected summary, got:\n%s", out)
	}
}

func TestValidate_SARIFToFile(t *testing.T) {
	path := writeTasks(t, "loop.json", loopTasks)
	output := filepath.Join(t.TempDir(), "report.sarif")

	out, _, err := execute(t, "validate", "--format", "sarif", "--output", output, path)
	var invalid *InvalidGraphError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected *InvalidGraphError, got %v", err)
	}
	if out != "" {
		t.Errorf("expected nothing on stdout, got %q", out)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"ruleId": "dependency-cycle"`) {
		t.Errorf("expected cycle result in SARIF:\n%s", data)
	}
}

func TestValidate_CycleAndDanglingInOneFile(t *testing.T) {
	path := writeTasks(t, "mixed.json", `[
		{"id": "a", "dependencies": ["b", "ghost"]},
		{"id": "b", "dependencies": ["a"]}
	]`)

	_, _, err := execute(t, "validate", "--strict", path)
	var invalid *InvalidGraphError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected *InvalidGraphError, got %v", err)
	}
	if len(invalid.Problems) != 2 {
		t.Fatalf("expected 2 problems, got %v", invalid.Problems)
	}
	if strings.Contains(err.Error(), "invalid task graphs") {
		t.Errorf("one file must not be reported as several graphs: %v", err)
	}
}

func TestValidate_OutputWriteError(t *testing.T) {
	path := writeTasks(t, "shop.json", shopTasks)
	output := filepath.Join(t.TempDir(), "missing", "report.json")

	_, _, err := execute(t, "validate", "--format", "json", "--output", output, path)
	if err == nil {
		t.Fatal("expected error for unwritable output")
	}
	var invalid *InvalidGraphError
	if errors.As(err, &invalid) {
		t.Error("output errors must not be reported as invalid graphs")
	}
}

func TestValidate_LoadError(t *testing.T) {
	path := writeTasks(t, "dup.json", `[{"id": "a"}, {"id": "a"}]`)

	_, _, err := execute(t, "validate", path)
	if !errors.Is(err, task.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	var invalid *InvalidGraphError
	if errors.As(err, &invalid) {
		t.Error("load errors must not be reported as invalid graphs")
	}
}

func TestValidate_UnknownFormat(t *testing.T) {
	path := writeTasks(t, "shop.json", shopTasks)

	if _, _, err := execute(t, "validate", "--format", "xml", path); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestValidate_RequiresFile(t *testing.T) {
	if _, _, err := execute(t, "validate"); err == nil {
		t.Fatal("expected error without arguments")
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	t.Setenv("TASKGRAPH_HISTORY_PATH", filepath.Join(t.TempDir(), "history.db"))
	path := writeTasks(t, "shop.json", shopTasks)

	_, errOut, err := execute(t, "validate", "--save", path)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	m := regexp.MustCompile(`saved .* as ([0-9a-f-]{36})`).FindStringSubmatch(errOut)
	if m == nil {
		t.Fatalf("expected saved id on stderr, got %q", errOut)
	}
	id := m[1]

	out, _, err := execute(t, "history", "list", "--format", "json")
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	var entries []history.Entry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("parse list: %v\n%s", err, out)
	}
	if len(entries) != 1 || entries[0].ID != id {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	out, _, err = execute(t, "history", "show", id)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	if !strings.Contains(out, "report "+id) || !strings.Contains(out, "[8h]") {
		t.Errorf("unexpected show output:\n%s", out)
	}

	if _, _, err := execute(t, "history", "show", "missing"); !errors.Is(err, history.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	out, _, err = execute(t, "history", "prune", "--keep", "1")
	if err != nil {
		t.Fatalf("history prune: %v", err)
	}
	if !strings.Contains(out, "removed 0 reports") {
		t.Errorf("unexpected prune output: %q", out)
	}
}

func TestCycles(t *testing.T) {
	loop := writeTasks(t, "loop.json", loopTasks)
	shop := writeTasks(t, "shop.json", shopTasks)

	out, _, err := execute(t, "cycles", "--format", "json", loop)
	var invalid *InvalidGraphError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected *InvalidGraphError, got %v", err)
	}
	var res task.CycleResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if !res.HasCycle || len(res.Cycle) != 4 {
		t.Errorf("unexpected result: %+v", res)
	}

	out, _, err = execute(t, "cycles", shop)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "No circular dependencies found") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestCriticalPath(t *testing.T) {
	path := writeTasks(t, "shop.json", shopTasks)

	out, _, err := execute(t, "critical-path", "--format", "json", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var res task.CriticalPathResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if strings.Join(res.Path, ",") != "t1,t3,t4" || res.TotalHours != 8 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestLevels(t *testing.T) {
	shop := writeTasks(t, "shop.json", shopTasks)
	loop := writeTasks(t, "loop.json", loopTasks)

	out, _, err := execute(t, "levels", "--format", "yaml", shop)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var levels [][]string
	if err := yaml.Unmarshal([]byte(out), &levels); err != nil {
		t.Fatalf("parse yaml: %v\n%s", err, out)
	}
	if diff := cmp.Diff([][]string{{"t1"}, {"t2", "t3"}, {"t4"}}, levels); diff != "" {
		t.Errorf("levels (-want +got):\n%s", diff)
	}

	out, _, err = execute(t, "levels", loop)
	if err != nil {
		t.Fatalf("forced leveling must not fail: %v", err)
	}
	if !strings.Contains(out, "unreliable") {
		t.Errorf("expected unreliable marker, got:\n%s", out)
	}

	_, _, err = execute(t, "levels", "--strict", loop)
	var invalid *InvalidGraphError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected *InvalidGraphError with --strict, got %v", err)
	}
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "taskgraph dev") {
		t.Errorf("unexpected version output: %q", out)
	}
}

func TestInvalidGraphError(t *testing.T) {
	one := &InvalidGraphError{Problems: []string{"a.json: cycle"}}
	if one.Error() != "invalid task graph: a.json: cycle" {
		t.Errorf("unexpected message: %q", one.Error())
	}

	two := &InvalidGraphError{Problems: []string{"a", "b"}}
	if !strings.HasPrefix(two.Error(), "invalid task graph: 2 problems") {
		t.Errorf("unexpected message: %q", two.Error())
	}
}
