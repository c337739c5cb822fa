package task

import (
	"fmt"
	"math"
)

// Task is a single unit of work with declared dependencies.
// Only ID, Dependencies and EstimatedHours carry meaning for analysis;
// the remaining fields are passed through untouched.
type Task struct {
	ID             string   `json:"id" yaml:"id"`
	Title          string   `json:"title,omitempty" yaml:"title,omitempty"`
	Description    string   `json:"description,omitempty" yaml:"description,omitempty"`
	Category       string   `json:"category,omitempty" yaml:"category,omitempty"`
	Priority       int      `json:"priority,omitempty" yaml:"priority,omitempty"`
	Dependencies   []string `json:"dependencies" yaml:"dependencies"`
	EstimatedHours float64  `json:"estimatedHours" yaml:"estimatedHours"`
	AmbiguityFlags []string `json:"ambiguityFlags,omitempty" yaml:"ambiguityFlags,omitempty"`
}

// TaskFile is the top-level structure of a task list on disk or on the wire.
type TaskFile struct {
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Tasks       []Task `json:"tasks" yaml:"tasks"`
}

// MaxHours is the largest accepted duration for one task. Ingestion rejects
// larger values and analysis clamps them, so fixed-point sums stay in range.
const MaxHours = 1e9

// NormalizeHours applies the default-substitution policy for durations:
// negative, NaN and infinite values become 0.
func NormalizeHours(h float64) float64 {
	if math.IsNaN(h) || math.IsInf(h, 0) || h < 0 {
		return 0
	}
	return h
}

// Normalize returns a copy of tasks with defaults applied: hours are
// clamped by NormalizeHours and nil dependency lists become empty.
func Normalize(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		t.EstimatedHours = NormalizeHours(t.EstimatedHours)
		if t.Dependencies == nil {
			t.Dependencies = []string{}
		}
		out[i] = t
	}
	return out
}

// CheckHours rejects durations above MaxHours.
func CheckHours(tasks []Task) error {
	for _, t := range tasks {
		if t.EstimatedHours > MaxHours {
			return fmt.Errorf("task %q: %g hours exceeds maximum of %g: %w", t.ID, t.EstimatedHours, float64(MaxHours), ErrInvalidInput)
		}
	}
	return nil
}

// CheckIDs rejects task lists with empty or repeated ids.
func CheckIDs(tasks []Task) error {
	seen := make(map[string]struct{}, len(tasks))
	for i, t := range tasks {
		if t.ID == "" {
			return fmt.Errorf("task %d has empty id: %w", i, ErrInvalidInput)
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateID, t.ID)
		}
		seen[t.ID] = struct{}{}
	}
	return nil
}
