package cli

import (
	"fmt"
	"strings"
)

// InvalidGraphError indicates that analysis succeeded but at least one task
// graph failed the check: it has a cycle, or strict mode found dangling
// references. Callers should map this to exit code 2.
type InvalidGraphError struct {
	Problems []string
}

func (e *InvalidGraphError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid task graph: " + e.Problems[0]
	}
	return fmt.Sprintf("invalid task graph: %d problems:\n  %s", len(e.Problems), strings.Join(e.Problems, "\n  "))
}
