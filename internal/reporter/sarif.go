package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/taskgraph/internal/task"
)

const (
	sarifSchema  = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json"
	sarifVersion = "2.1.0"
)

// SARIF rule ids.
const (
	RuleCycle               = "dependency-cycle"
	RuleUnknownDependency   = "unknown-dependency"
	RuleDuplicateDependency = "duplicate-dependency"
	RuleDuplicateTask       = "duplicate-task"
)

type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version,omitempty"`
	Rules   []sarifRule `json:"rules,omitempty"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	ShortDescription sarifMessage `json:"shortDescription"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

var sarifRules = []sarifRule{
	{ID: RuleCycle, ShortDescription: sarifMessage{Text: "Tasks form a circular dependency"}},
	{ID: RuleUnknownDependency, ShortDescription: sarifMessage{Text: "Task depends on a task that does not exist"}},
	{ID: RuleDuplicateDependency, ShortDescription: sarifMessage{Text: "Task lists the same dependency twice"}},
	{ID: RuleDuplicateTask, ShortDescription: sarifMessage{Text: "Task id is defined more than once"}},
}

func diagnosticRule(k task.DiagnosticKind) (rule, level string) {
	switch k {
	case task.DiagUnknownDependency:
		return RuleUnknownDependency, "warning"
	case task.DiagDuplicateTask:
		return RuleDuplicateTask, "warning"
	default:
		return RuleDuplicateDependency, "note"
	}
}

// WriteSARIF writes a SARIF v2.1.0 log with one result per cycle and
// per graph diagnostic.
func WriteSARIF(w io.Writer, reports []FileReport, version string) error {
	results := []sarifResult{}
	for _, fr := range reports {
		loc := []sarifLocation{{
			PhysicalLocation: sarifPhysicalLocation{
				ArtifactLocation: sarifArtifactLocation{URI: fr.Source},
			},
		}}

		if c := fr.Report.CircularDependencies; c.HasCycle {
			results = append(results, sarifResult{
				RuleID:    RuleCycle,
				Level:     "error",
				Message:   sarifMessage{Text: "Circular dependency: " + strings.Join(c.Cycle, " -> ")},
				Locations: loc,
			})
		}
		for _, d := range fr.Report.Diagnostics {
			rule, level := diagnosticRule(d.Kind)
			results = append(results, sarifResult{
				RuleID:    rule,
				Level:     level,
				Message:   sarifMessage{Text: d.String()},
				Locations: loc,
			})
		}
	}

	sarif := sarifReport{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{{
			Tool: sarifTool{
				Driver: sarifDriver{Name: "taskgraph", Version: version, Rules: sarifRules},
			},
			Results: results,
		}},
	}

	data, err := json.MarshalIndent(sarif, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sarif: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write sarif: %w", err)
	}
	return nil
}
