package task

import (
	"log/slog"
	"math"
	"slices"
)

// hourUnits is the fixed-point scale for durations: 1 hour = 1000 units.
// Comparing integer units keeps tie detection in the backtrace exact.
const hourUnits = 1000

// toUnits converts hours to units, clamped to [0, MaxHours].
func toUnits(h float64) int64 {
	h = min(NormalizeHours(h), MaxHours)
	return int64(math.Round(h * hourUnits))
}

// addUnits adds non-negative unit counts, saturating at math.MaxInt64.
func addUnits(a, b int64) int64 {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

func fromUnits(u int64) float64 {
	return float64(u) / hourUnits
}

// TaskSchedule holds CPM timing for one task, in hours.
type TaskSchedule struct {
	EarliestStart  float64 `json:"earliestStart" yaml:"earliestStart"`
	EarliestFinish float64 `json:"earliestFinish" yaml:"earliestFinish"`
	LatestStart    float64 `json:"latestStart" yaml:"latestStart"`
	LatestFinish   float64 `json:"latestFinish" yaml:"latestFinish"`
	Slack          float64 `json:"slack" yaml:"slack"`
	Critical       bool    `json:"critical" yaml:"critical"`
}

// CriticalPathResult is the longest dependency chain and its length.
// Schedule covers every task the forward pass reached.
type CriticalPathResult struct {
	Path       []string                `json:"path" yaml:"path"`
	TotalHours float64                 `json:"totalHours" yaml:"totalHours"`
	Schedule   map[string]TaskSchedule `json:"schedule,omitempty" yaml:"schedule,omitempty"`
}

// CriticalPath computes the critical path of tasks with a CPM forward pass.
// Durations have milli-hour resolution, so tasks under 0.0005h count as 0.
func CriticalPath(tasks []Task) CriticalPathResult {
	return BuildGraph(tasks).CriticalPath()
}

// CriticalPath runs a Kahn-style forward pass to find earliest start and
// finish times, then traces back from the task with the greatest finish.
//
// On a cyclic graph the pass silently covers only tasks whose dependencies
// all complete; callers should run DetectCycle first. When several
// dependencies finish exactly at a task's earliest start, the backtrace
// follows the first in dependency order, so the path is one critical path
// rather than a unique one. Durations above MaxHours are clamped.
func (g *Graph) CriticalPath() CriticalPathResult {
	if g.Len() == 0 {
		return CriticalPathResult{Path: []string{}}
	}

	inDegree := make(map[string]int, g.Len())
	es := make(map[string]int64, g.Len())
	ef := make(map[string]int64, g.Len())

	var queue []string
	for _, id := range g.order {
		inDegree[id] = len(g.deps[id])
		if inDegree[id] == 0 {
			queue = append(queue, id)
			es[id] = 0
		}
	}

	var (
		processed []string
		maxEnd    int64
		terminus  string
	)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		end := addUnits(es[id], g.hours(id))
		ef[id] = end
		processed = append(processed, id)

		if end > maxEnd {
			maxEnd = end
			terminus = id
		}

		for _, next := range g.dependents[id] {
			if end > es[next] {
				es[next] = end
			}
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(processed) < g.Len() {
		slog.Debug("critical path forward pass stopped early",
			"processed", len(processed), "total", g.Len())
	}

	return CriticalPathResult{
		Path:       g.backtrace(terminus, es, ef),
		TotalHours: fromUnits(maxEnd),
		Schedule:   g.schedule(processed, es, ef, maxEnd),
	}
}

// backtrace walks from terminus to a source, at each step taking the first
// dependency whose finish equals the current task's earliest start.
func (g *Graph) backtrace(terminus string, es, ef map[string]int64) []string {
	path := []string{}
	for cur := terminus; cur != ""; {
		path = append(path, cur)
		prev := ""
		for _, dep := range g.deps[cur] {
			if finish, ok := ef[dep]; ok && finish == es[cur] {
				prev = dep
				break
			}
		}
		cur = prev
	}
	slices.Reverse(path)
	return path
}

// schedule runs the CPM backward pass over the processed tasks, in reverse
// topological order, to derive latest times and slack.
func (g *Graph) schedule(processed []string, es, ef map[string]int64, total int64) map[string]TaskSchedule {
	if len(processed) == 0 {
		return nil
	}

	ls := make(map[string]int64, len(processed))
	lf := make(map[string]int64, len(processed))
	out := make(map[string]TaskSchedule, len(processed))

	for i := len(processed) - 1; i >= 0; i-- {
		id := processed[i]

		finish := total
		for _, succ := range g.dependents[id] {
			if start, ok := ls[succ]; ok && start < finish {
				finish = start
			}
		}
		lf[id] = finish
		ls[id] = finish - g.hours(id)

		slack := ls[id] - es[id]
		out[id] = TaskSchedule{
			EarliestStart:  fromUnits(es[id]),
			EarliestFinish: fromUnits(ef[id]),
			LatestStart:    fromUnits(ls[id]),
			LatestFinish:   fromUnits(lf[id]),
			Slack:          fromUnits(slack),
			Critical:       slack == 0,
		}
	}

	return out
}
