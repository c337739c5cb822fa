package task

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for task ingestion and strict analysis.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrDuplicateID  = errors.New("duplicate task id")
	ErrCycle        = errors.New("dependency cycle")
)

// CycleError reports a concrete cycle found while a strict operation
// required an acyclic graph.
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	if len(e.Cycle) == 0 {
		return "dependency cycle detected"
	}
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

func (e *CycleError) Unwrap() error {
	return ErrCycle
}
