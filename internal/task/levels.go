package task

import "log/slog"

// ParallelLevels groups tasks into levels of mutually independent tasks.
// Every task appears in exactly one level. If the graph is cyclic, all tasks
// that can never be scheduled are forced into a single final level, so the
// result is only meaningful when DetectCycle reports no cycle.
func ParallelLevels(tasks []Task) [][]string {
	levels, _ := BuildGraph(tasks).Levels(false)
	return levels
}

// ParallelLevelsStrict is ParallelLevels that fails with a *CycleError
// instead of force-assigning unschedulable tasks.
func ParallelLevelsStrict(tasks []Task) ([][]string, error) {
	return BuildGraph(tasks).Levels(true)
}

// Levels performs a layered topological sort. Level 0 holds tasks with no
// dependencies; each following level holds the tasks whose dependencies all
// sit in earlier levels. Ids keep input order within a level.
//
// When no remaining task qualifies, strict mode returns the levels built so
// far and a *CycleError; otherwise every remaining task is placed in the
// current level. Either way the loop runs at most Len() times.
func (g *Graph) Levels(strict bool) ([][]string, error) {
	levels := [][]string{}
	placed := make(map[string]bool, g.Len())
	remaining := g.order

	for len(remaining) > 0 {
		var level, rest []string
		for _, id := range remaining {
			if g.depsPlaced(id, placed) {
				level = append(level, id)
			} else {
				rest = append(rest, id)
			}
		}

		if len(level) == 0 {
			if strict {
				return levels, &CycleError{Cycle: g.findCycle()}
			}
			slog.Warn("no schedulable tasks left, forcing remaining tasks into one level",
				"level", len(levels), "remaining", len(rest))
			level, rest = rest, nil
		}

		for _, id := range level {
			placed[id] = true
		}
		levels = append(levels, level)
		remaining = rest
	}

	return levels, nil
}

func (g *Graph) depsPlaced(id string, placed map[string]bool) bool {
	for _, dep := range g.deps[id] {
		if !placed[dep] {
			return false
		}
	}
	return true
}
