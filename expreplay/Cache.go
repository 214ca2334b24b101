package expreplay

import (
	"fmt"

	"github.com/samuelfneumann/goddpg/timestep"
	"github.com/samuelfneumann/goddpg/utils/intutils"
)

// fifoCache implements a concrete ExperienceReplayer as a ring buffer.
// Once the buffer is filled, each newly added transition overwrites
// the oldest stored transition. This is the most common use of
// experience replay.
//
// The done flag of each stored transition is cached as a float64 mask
// (1.0 if the transition ended the episode, 0.0 otherwise) so that
// sampled batches can be fed directly into bootstrap target
// computations.
type fifoCache struct {
	stateCache     []float64
	actionCache    []float64
	rewardCache    []float64
	nextStateCache []float64
	doneCache      []float64

	indices         []int
	currentInUsePos int
	isFull          bool

	// Outlines how data is sampled
	sampler Selector

	minCapacity int
	maxCapacity int
	featureSize int
	actionSize  int
}

// newFifoCache returns a new fifoCache. The sampler parameter is a
// Selector which determines how data is sampled from the replay
// buffer. The featureSize and actionSize parameters define the size of
// the feature and action vectors. The minCapacity parameter determines
// the minimum number of samples that should be in the buffer before
// sampling is allowed. The maxCapacity parameter determines the
// maximum number of samples allowed in the buffer at any given time.
func newFifoCache(sampler Selector, minCapacity, maxCapacity,
	featureSize, actionSize int) *fifoCache {
	stateCache := make([]float64, maxCapacity*featureSize)
	nextStateCache := make([]float64, maxCapacity*featureSize)

	actionCache := make([]float64, maxCapacity*actionSize)

	rewardCache := make([]float64, maxCapacity)
	doneCache := make([]float64, maxCapacity)

	indices := make([]int, maxCapacity)
	for i := 0; i < maxCapacity; i++ {
		indices[i] = i
	}

	return &fifoCache{
		stateCache:     stateCache,
		actionCache:    actionCache,
		rewardCache:    rewardCache,
		nextStateCache: nextStateCache,
		doneCache:      doneCache,

		indices:         indices,
		currentInUsePos: 0,
		isFull:          false,

		sampler: sampler,

		minCapacity: minCapacity,
		maxCapacity: maxCapacity,
		featureSize: featureSize,
		actionSize:  actionSize,
	}
}

// String returns the string representation of the fifoCache
func (c *fifoCache) String() string {
	var emptyIndices []int
	var usedIndices []int
	if !c.isFull {
		emptyIndices = c.indices[c.currentInUsePos:]
		usedIndices = c.indices[:c.currentInUsePos]
	} else {
		emptyIndices = []int{}
		usedIndices = c.indices
	}

	baseStr := "Indices Available: %v \nIndices Used: %v \nStates: %v" +
		" \nActions: %v \nRewards: %v \nNext States: %v \nDones: %v"
	return fmt.Sprintf(baseStr, emptyIndices, usedIndices, c.stateCache,
		c.actionCache, c.rewardCache, c.nextStateCache, c.doneCache)
}

// BatchSize returns the number of samples sampled using Sample() -
// a.k.a the batch size
func (c *fifoCache) BatchSize() int {
	return c.sampler.BatchSize()
}

// insertOrder returns a slice of at most n indices which describes
// the order that the oldest n stored transitions were inserted into
// the buffer
func (c *fifoCache) insertOrder(n int) []int {
	n = intutils.Min(n, c.Capacity())

	if !c.isFull {
		return c.indices[:n]
	}

	// Once the ring has wrapped, the oldest element sits at the
	// current insertion position
	currentIndices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		currentIndices = append(currentIndices,
			(c.currentInUsePos+i)%c.MaxCapacity())
	}

	return currentIndices
}

// sampleFrom returns the slice of indices to sample from
func (c *fifoCache) sampleFrom() []int {
	if !c.isFull {
		return c.indices[:c.currentInUsePos]
	}
	return c.indices
}

// Sample samples and returns a batch of transitions from the replay
// buffer. The returned values are the states, actions, rewards, next
// states, and done masks. Sampling does not remove any data from the
// buffer.
func (c *fifoCache) Sample() ([]float64, []float64, []float64,
	[]float64, []float64, error) {
	if c.Capacity() == 0 {
		err := &ExpReplayError{
			Op:  "sample",
			Err: errEmptyBuffer,
		}
		return nil, nil, nil, nil, nil, err
	}
	if c.Capacity() < c.MinCapacity() || c.Capacity() < c.BatchSize() {
		err := &ExpReplayError{
			Op:  "sample",
			Err: errInsufficientSamples,
		}
		return nil, nil, nil, nil, nil, err
	}

	indices := c.sampler.choose(c)

	// Fill the state batches
	stateBatch := make([]float64, c.BatchSize()*c.featureSize)
	nextStateBatch := make([]float64, c.BatchSize()*c.featureSize)
	for i, index := range indices {
		batchStartInd := i * c.featureSize
		expStartInd := index * c.featureSize
		copy(stateBatch[batchStartInd:batchStartInd+c.featureSize],
			c.stateCache[expStartInd:expStartInd+c.featureSize])
		copy(nextStateBatch[batchStartInd:batchStartInd+c.featureSize],
			c.nextStateCache[expStartInd:expStartInd+c.featureSize])
	}

	// Fill the action batch
	actionBatch := make([]float64, c.BatchSize()*c.actionSize)
	for i, index := range indices {
		batchStartInd := i * c.actionSize
		expStartInd := index * c.actionSize
		copy(actionBatch[batchStartInd:batchStartInd+c.actionSize],
			c.actionCache[expStartInd:expStartInd+c.actionSize])
	}

	rewardBatch := make([]float64, c.BatchSize())
	doneBatch := make([]float64, c.BatchSize())
	for i, index := range indices {
		rewardBatch[i] = c.rewardCache[index]
		doneBatch[i] = c.doneCache[index]
	}

	return stateBatch, actionBatch, rewardBatch, nextStateBatch, doneBatch,
		nil
}

// Capacity returns the current number of elements in the fifoCache
// that are available for sampling
func (c *fifoCache) Capacity() int {
	if c.isFull {
		return c.MaxCapacity()
	}
	return c.currentInUsePos
}

// MaxCapacity returns the maximum number of elements that are allowed
// in the fifoCache
func (c *fifoCache) MaxCapacity() int {
	return c.maxCapacity
}

// MinCapacity returns the minimum number of elements required in the
// fifoCache before sampling is allowed
func (c *fifoCache) MinCapacity() int {
	return c.minCapacity
}

// Add adds a transition to the fifoCache, overwriting the oldest
// stored transition if the cache is full
func (c *fifoCache) Add(t timestep.Transition) error {
	if t.State.Len() != c.featureSize || t.NextState.Len() != c.featureSize {
		return fmt.Errorf("add: invalid feature size \n\twant(%v)\n\thave(%v)",
			c.featureSize, t.State.Len())
	}
	if t.Action.Len() != c.actionSize {
		return fmt.Errorf("add: invalid action size \n\twant(%v)\n\thave(%v)",
			c.actionSize, t.Action.Len())
	}

	index := c.currentInUsePos
	if !c.isFull && index+1 == c.MaxCapacity() {
		c.isFull = true
	}

	// Copy states
	stateInd := index * c.featureSize
	for i := 0; i < c.featureSize; i++ {
		c.stateCache[stateInd+i] = t.State.AtVec(i)
		c.nextStateCache[stateInd+i] = t.NextState.AtVec(i)
	}

	// Copy action
	actionInd := index * c.actionSize
	for i := 0; i < c.actionSize; i++ {
		c.actionCache[actionInd+i] = t.Action.AtVec(i)
	}

	// Copy reward and done mask
	c.rewardCache[index] = t.Reward
	if t.Done {
		c.doneCache[index] = 1.0
	} else {
		c.doneCache[index] = 0.0
	}

	c.currentInUsePos = (c.currentInUsePos + 1) % c.MaxCapacity()
	return nil
}
