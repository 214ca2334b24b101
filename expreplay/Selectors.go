package expreplay

import (
	"math/rand"
)

// Selector implements functionality for choosing which stored indices
// of an experience replay buffer a batch should be drawn from
type Selector interface {
	// choose selects the indices at which data should be sampled from
	// the experience replay buffer
	choose(c *fifoCache) []int

	// BatchSize returns the number of elements that will be selected
	BatchSize() int
}

// uniformSelector is a Selector which selects data from an experience
// replay buffer uniformly randomly without replacement
type uniformSelector struct {
	samples int
	rng     *rand.Rand
}

// NewUniformSelector returns a new Selector which selects data
// uniformly randomly, without replacement, from an experience replay
// buffer
func NewUniformSelector(samples int, seed int64) Selector {
	source := rand.NewSource(seed)
	rng := rand.New(source)

	return &uniformSelector{samples: samples, rng: rng}
}

// BatchSize gets the number of samples in a batch drawn from the buffer
func (u *uniformSelector) BatchSize() int {
	return u.samples
}

// choose selects a number of indices at which to draw data from the
// buffer. Each stored index is selected at most once per call, so
// every transition in the returned batch is distinct.
func (u *uniformSelector) choose(c *fifoCache) []int {
	inUse := c.sampleFrom()

	selected := make([]int, u.BatchSize())
	for i, j := range u.rng.Perm(len(inUse))[:u.BatchSize()] {
		selected[i] = inUse[j]
	}

	return selected
}

// fifoSelector is a Selector which selects the oldest data from an
// experience replay buffer first
type fifoSelector struct {
	samples int
}

// NewFifoSelector returns a new Selector which draws the oldest data
// from an experience replay buffer
func NewFifoSelector(samples int) Selector {
	return &fifoSelector{samples: samples}
}

// BatchSize gets the number of samples in a batch drawn from the buffer
func (f *fifoSelector) BatchSize() int {
	return f.samples
}

// choose selects a number of indices at which to draw data from the
// buffer, oldest first
func (f *fifoSelector) choose(c *fifoCache) []int {
	return c.insertOrder(f.BatchSize())
}
