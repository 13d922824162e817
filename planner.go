package main

import (
	"math"
	"math/rand"
)

// Batch is one planned backend request: the 1-based offset of its first
// result and how many results to ask for.
type Batch struct {
	Start int
	Num   int
}

// Planner computes the backend request plan for a desired result count.
// Page size, the request cap and the random start pool are tunable fields,
// not hard-coded law.
type Planner struct {
	PageSize    int
	MaxRequests int
	StartPool   []int
}

func NewPlanner() *Planner {
	return &Planner{
		PageSize:    10,
		MaxRequests: 10,
		StartPool:   []int{1, 11, 21, 31, 41, 51, 61, 71, 81, 91},
	}
}

// Plan oversamples beyond desiredCount so that link validation and content
// verification can discard candidates and still leave enough results. The
// request cap may clamp the budget below the raw oversampling target; that
// is an accepted quota trade-off.
//
// Random-order plans draw their start offsets without replacement from a
// shuffled pool so repeated searches sample different regions of the
// backend's result space.
func (p *Planner) Plan(desiredCount int, order SortOrder, rnd *rand.Rand) []Batch {
	var baseNeeded float64
	if order == SortRandom {
		baseNeeded = math.Max(float64(desiredCount)*2.5, math.Max(float64(desiredCount+30), 90))
	} else {
		baseNeeded = math.Max(float64(desiredCount)*2, math.Max(float64(desiredCount+20), 90))
	}

	rawNeeded := int(math.Ceil(baseNeeded))
	planned := (rawNeeded + p.PageSize - 1) / p.PageSize
	maxRequests := min(planned, p.MaxRequests)
	resultsNeeded := min(rawNeeded, maxRequests*p.PageSize)

	var starts []int
	if order == SortRandom {
		pool := make([]int, len(p.StartPool))
		copy(pool, p.StartPool)
		shuffleInPlace(pool, rnd)
		for i := 0; i < maxRequests && i < len(pool); i++ {
			starts = append(starts, pool[i])
		}
	} else {
		for i := 0; i < maxRequests; i++ {
			starts = append(starts, i*p.PageSize+1)
		}
	}

	var batches []Batch
	remaining := resultsNeeded
	for _, start := range starts {
		if remaining <= 0 {
			break
		}
		num := min(p.PageSize, remaining)
		batches = append(batches, Batch{Start: start, Num: num})
		remaining -= num
	}
	return batches
}

// Budget is the total number of results a plan asks the backend for.
func Budget(batches []Batch) int {
	total := 0
	for _, b := range batches {
		total += b.Num
	}
	return total
}

// shuffleInPlace is a Fisher-Yates shuffle over the given random source.
func shuffleInPlace[T any](items []T, rnd *rand.Rand) {
	for i := len(items) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}
