package task

// Report combines the three analyses of one task list.
// The result is authoritative only when IsValid is true: on a cyclic graph
// CriticalPath is partial and ParallelTasks is degenerate.
type Report struct {
	IsValid              bool               `json:"isValid" yaml:"isValid"`
	CircularDependencies CycleResult        `json:"circularDependencies" yaml:"circularDependencies"`
	CriticalPath         CriticalPathResult `json:"criticalPath" yaml:"criticalPath"`
	ParallelTasks        [][]string         `json:"parallelTasks" yaml:"parallelTasks"`
	TotalTasks           int                `json:"totalTasks" yaml:"totalTasks"`
	Diagnostics          []Diagnostic       `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// Validate runs cycle detection, critical path and leveling over one graph.
func Validate(tasks []Task) *Report {
	g := BuildGraph(tasks)
	cycles := g.DetectCycle()
	levels, _ := g.Levels(false)

	return &Report{
		IsValid:              !cycles.HasCycle,
		CircularDependencies: cycles,
		CriticalPath:         g.CriticalPath(),
		ParallelTasks:        levels,
		TotalTasks:           len(tasks),
		Diagnostics:          g.Diagnostics(),
	}
}

// UnknownDependencies returns the diagnostics for dangling references.
func (r *Report) UnknownDependencies() []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Kind == DiagUnknownDependency {
			out = append(out, d)
		}
	}
	return out
}
