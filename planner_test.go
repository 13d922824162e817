package main

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func TestPlanOriginalOffsets(t *testing.T) {
	p := NewPlanner()
	batches := p.Plan(10, SortOriginal, testRand(1))

	// max(10*2, 10+20, 90) = 90 results over 9 sequential pages
	assert.Equal(t, 9, len(batches))
	assert.Equal(t, 90, Budget(batches))
	for i, b := range batches {
		assert.Equal(t, i*10+1, b.Start)
		assert.Equal(t, 10, b.Num)
	}
}

func TestPlanRandomDrawsFromPoolWithoutReplacement(t *testing.T) {
	p := NewPlanner()
	batches := p.Plan(10, SortRandom, testRand(7))

	// max(10*2.5, 10+30, 90) = 90 results over 9 pages
	assert.Equal(t, 9, len(batches))
	assert.Equal(t, 90, Budget(batches))

	seen := map[int]bool{}
	pool := map[int]bool{}
	for _, s := range p.StartPool {
		pool[s] = true
	}
	for _, b := range batches {
		assert.True(t, pool[b.Start], "start %d not in pool", b.Start)
		assert.False(t, seen[b.Start], "start %d drawn twice", b.Start)
		seen[b.Start] = true
		assert.Equal(t, 10, b.Num)
	}
}

func TestPlanRequestCapClampsBudget(t *testing.T) {
	p := NewPlanner()
	batches := p.Plan(50, SortRandom, testRand(3))

	// raw target is 125 but the 10-request cap limits the budget to 100
	assert.Equal(t, 10, len(batches))
	assert.Equal(t, 100, Budget(batches))
}

func TestPlanPartialLastBatch(t *testing.T) {
	p := NewPlanner()
	batches := p.Plan(37, SortRandom, testRand(5))

	// ceil(37*2.5) = 93: nine full pages plus a 3-result tail
	assert.Equal(t, 10, len(batches))
	assert.Equal(t, 93, Budget(batches))
	for _, b := range batches[:9] {
		assert.Equal(t, 10, b.Num)
	}
	assert.Equal(t, 3, batches[9].Num)
}

func TestPlanEmptyWhenNoRequestsAllowed(t *testing.T) {
	p := NewPlanner()
	p.MaxRequests = 0
	batches := p.Plan(10, SortOriginal, testRand(1))
	assert.Empty(t, batches)
	assert.Equal(t, 0, Budget(batches))
}

func TestShuffleInPlaceIsPermutation(t *testing.T) {
	items := make([]int, 90)
	for i := range items {
		items[i] = i
	}
	shuffled := make([]int, len(items))
	copy(shuffled, items)
	shuffleInPlace(shuffled, testRand(42))

	assert.NotEqual(t, items, shuffled)

	sorted := make([]int, len(shuffled))
	copy(sorted, shuffled)
	sort.Ints(sorted)
	assert.Equal(t, items, sorted)
}
