package task

const (
	suggestionEmpty   = "No tasks to analyze"
	suggestionNoCycle = "No circular dependencies found"
	suggestionCycle   = "Circular dependency detected. Review task dependencies and break the cycle by removing or restructuring dependencies."
)

// CycleResult is the outcome of a circular dependency check.
type CycleResult struct {
	HasCycle   bool     `json:"hasCycle" yaml:"hasCycle"`
	Cycle      []string `json:"cycle" yaml:"cycle"`
	Suggestion string   `json:"suggestion" yaml:"suggestion"`
}

// DetectCycle reports the first dependency cycle found in tasks.
func DetectCycle(tasks []Task) CycleResult {
	if len(tasks) == 0 {
		return CycleResult{Cycle: []string{}, Suggestion: suggestionEmpty}
	}
	return BuildGraph(tasks).DetectCycle()
}

// DetectCycle reports the first dependency cycle reachable in input order.
// The cycle is closed: its first and last elements are the same id.
func (g *Graph) DetectCycle() CycleResult {
	if g.Len() == 0 {
		return CycleResult{Cycle: []string{}, Suggestion: suggestionEmpty}
	}
	if cycle := g.findCycle(); cycle != nil {
		return CycleResult{HasCycle: true, Cycle: cycle, Suggestion: suggestionCycle}
	}
	return CycleResult{Cycle: []string{}, Suggestion: suggestionNoCycle}
}

type dfsFrame struct {
	id   string
	next int // index of the next dependency edge to follow
}

// findCycle walks the graph depth-first with an explicit stack. Roots are
// taken in input order and edges in adjacency order; the walk stops at the
// first edge that re-enters the current path.
func (g *Graph) findCycle() []string {
	visited := make(map[string]bool, g.Len())
	onStack := make(map[string]int, g.Len()) // id → position in stack

	for _, root := range g.order {
		if visited[root] {
			continue
		}

		visited[root] = true
		onStack[root] = 0
		stack := []dfsFrame{{id: root}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			deps := g.deps[top.id]

			if top.next >= len(deps) {
				delete(onStack, top.id)
				stack = stack[:len(stack)-1]
				continue
			}

			dep := deps[top.next]
			top.next++

			if pos, ok := onStack[dep]; ok {
				cycle := make([]string, 0, len(stack)-pos+1)
				for _, f := range stack[pos:] {
					cycle = append(cycle, f.id)
				}
				return append(cycle, dep)
			}
			if !visited[dep] {
				visited[dep] = true
				onStack[dep] = len(stack)
				stack = append(stack, dfsFrame{id: dep})
			}
		}
	}

	return nil
}

