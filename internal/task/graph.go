package task

import (
	"fmt"
	"log/slog"
)

// DiagnosticKind classifies a structural problem found while building a graph.
type DiagnosticKind string

const (
	DiagUnknownDependency   DiagnosticKind = "unknown_dependency"
	DiagDuplicateDependency DiagnosticKind = "duplicate_dependency"
	DiagDuplicateTask       DiagnosticKind = "duplicate_task"
)

// Diagnostic records an edge or record the graph builder discarded.
type Diagnostic struct {
	Kind   DiagnosticKind `json:"kind" yaml:"kind"`
	TaskID string         `json:"taskId" yaml:"taskId"`
	Ref    string         `json:"ref,omitempty" yaml:"ref,omitempty"`
}

func (d Diagnostic) String() string {
	switch d.Kind {
	case DiagUnknownDependency:
		return fmt.Sprintf("task %q depends on unknown task %q", d.TaskID, d.Ref)
	case DiagDuplicateDependency:
		return fmt.Sprintf("task %q lists dependency %q more than once", d.TaskID, d.Ref)
	case DiagDuplicateTask:
		return fmt.Sprintf("task %q is defined more than once; later definitions ignored", d.TaskID)
	default:
		return fmt.Sprintf("%s: %s %s", d.Kind, d.TaskID, d.Ref)
	}
}

// Graph is the normalized dependency structure of a task list.
// An edge A → B means A requires B to finish first.
type Graph struct {
	tasks      map[string]*Task
	order      []string            // distinct ids in input order
	deps       map[string][]string // task → valid dependencies, first-seen order
	dependents map[string][]string // task → tasks that depend on it
	diags      []Diagnostic
}

// BuildGraph normalizes a task list into adjacency form. Dependencies on
// ids absent from the list and repeated dependencies are dropped and
// recorded as diagnostics; nothing here is fatal.
func BuildGraph(tasks []Task) *Graph {
	g := &Graph{
		tasks:      make(map[string]*Task, len(tasks)),
		order:      make([]string, 0, len(tasks)),
		deps:       make(map[string][]string, len(tasks)),
		dependents: make(map[string][]string, len(tasks)),
	}

	normalized := Normalize(tasks)
	for i := range normalized {
		t := &normalized[i]
		if _, dup := g.tasks[t.ID]; dup {
			g.diagnose(Diagnostic{Kind: DiagDuplicateTask, TaskID: t.ID})
			continue
		}
		g.tasks[t.ID] = t
		g.order = append(g.order, t.ID)
	}

	for _, id := range g.order {
		t := g.tasks[id]
		seen := make(map[string]struct{}, len(t.Dependencies))
		valid := make([]string, 0, len(t.Dependencies))
		for _, dep := range t.Dependencies {
			if _, ok := g.tasks[dep]; !ok {
				g.diagnose(Diagnostic{Kind: DiagUnknownDependency, TaskID: id, Ref: dep})
				continue
			}
			if _, ok := seen[dep]; ok {
				g.diagnose(Diagnostic{Kind: DiagDuplicateDependency, TaskID: id, Ref: dep})
				continue
			}
			seen[dep] = struct{}{}
			valid = append(valid, dep)
			g.dependents[dep] = append(g.dependents[dep], id)
		}
		g.deps[id] = valid
	}

	return g
}

func (g *Graph) diagnose(d Diagnostic) {
	slog.Debug("graph builder dropped input", "kind", string(d.Kind), "task", d.TaskID, "ref", d.Ref)
	g.diags = append(g.diags, d)
}

// Order returns task ids in input order, one entry per distinct id.
func (g *Graph) Order() []string {
	return g.order
}

// Len returns the number of distinct tasks.
func (g *Graph) Len() int {
	return len(g.order)
}

// Task returns the normalized task for an id, or nil.
func (g *Graph) Task(id string) *Task {
	return g.tasks[id]
}

// Deps returns the valid dependencies of a task.
func (g *Graph) Deps(id string) []string {
	return g.deps[id]
}

// Dependents returns the ids that directly depend on the given task.
func (g *Graph) Dependents(id string) []string {
	return g.dependents[id]
}

// Diagnostics returns everything the builder discarded, in discovery order.
func (g *Graph) Diagnostics() []Diagnostic {
	return g.diags
}

// hours returns a task's duration in fixed-point units.
func (g *Graph) hours(id string) int64 {
	if t := g.tasks[id]; t != nil {
		return toUnits(t.EstimatedHours)
	}
	return 0
}
