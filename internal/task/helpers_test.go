package task

import (
	"fmt"
	"math/rand/v2"
)

// randomDAG builds n tasks where task i may only depend on tasks j < i,
// then shuffles the input order. Hours are multiples of 0.5 so sums are exact.
func randomDAG(seed uint64, n int) []Task {
	r := rand.New(rand.NewPCG(seed, seed*31+7))
	tasks := make([]Task, n)
	for i := range tasks {
		tasks[i] = Task{
			ID:             fmt.Sprintf("t%02d", i),
			EstimatedHours: float64(r.IntN(11)) / 2,
			Dependencies:   []string{},
		}
		for j := 0; j < i; j++ {
			if r.IntN(5) == 0 {
				tasks[i].Dependencies = append(tasks[i].Dependencies, tasks[j].ID)
			}
		}
	}
	r.Shuffle(len(tasks), func(i, j int) { tasks[i], tasks[j] = tasks[j], tasks[i] })
	return tasks
}

// longestFinish computes the maximum finish time over all chains by
// memoized recursion, independently of the Kahn pass under test.
func longestFinish(tasks []Task) float64 {
	byID := make(map[string]Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	memo := make(map[string]float64, len(tasks))
	var finish func(id string) float64
	finish = func(id string) float64 {
		if f, ok := memo[id]; ok {
			return f
		}
		start := 0.0
		for _, dep := range byID[id].Dependencies {
			if _, ok := byID[dep]; !ok {
				continue
			}
			if f := finish(dep); f > start {
				start = f
			}
		}
		memo[id] = start + byID[id].EstimatedHours
		return memo[id]
	}

	best := 0.0
	for _, t := range tasks {
		if f := finish(t.ID); f > best {
			best = f
		}
	}
	return best
}
