// Package expreplay implements experience replay buffers
package expreplay

import (
	"fmt"

	"github.com/samuelfneumann/goddpg/timestep"
)

// Config implements a specific configuration of an ExperienceReplayer
type Config struct {
	SampleSize        int
	MaxReplayCapacity int
	MinReplayCapacity int
}

// Create creates and returns the ExperienceReplayer with the specified
// Config.
func (c Config) Create(featureSize, actionSize int,
	seed int64) (ExperienceReplayer, error) {
	sampler := NewUniformSelector(c.SampleSize, seed)

	return New(sampler, c.MinReplayCapacity, c.MaxReplayCapacity,
		featureSize, actionSize)
}

// ExperienceReplayer implements an experience replay buffer
type ExperienceReplayer interface {
	// Add adds a transition to the buffer, evicting the oldest stored
	// transition if the buffer is at maximum capacity
	Add(t timestep.Transition) error

	// Sample samples a batch of experience from the buffer and returns
	// the batch as five index-aligned, row-major []float64: states,
	// actions, rewards, next states, and done masks
	Sample() ([]float64, []float64, []float64, []float64, []float64,
		error)

	// Capacity returns the current number of samples in the buffer
	Capacity() int

	// MaxCapacity returns the maximum allowable samples in the buffer
	MaxCapacity() int

	// MinCapacity returns the number of samples required to be in
	// the buffer before the buffer can be sampled
	MinCapacity() int

	// BatchSize returns the number of samples returned by Sample()
	BatchSize() int
}

// New creates and returns a new ExperienceReplayer. The sampler
// parameter is a Selector which determines how data is sampled from
// the replay buffer. Eviction is always first-in-first-out. The
// featureSize and actionSize parameters define the size of the state
// feature and action vectors. The minCapacity parameter determines the
// number of samples that must be in the buffer before sampling is
// allowed, and the maxCapacity parameter the maximum number of samples
// the buffer may hold.
//
// Pixel observations should be flattened before adding to the buffer.
func New(sampler Selector, minCapacity, maxCapacity, featureSize,
	actionSize int) (ExperienceReplayer, error) {
	if minCapacity <= 0 {
		return nil, fmt.Errorf("new: minCapacity must be > 0")
	}
	if maxCapacity < 1 {
		return nil, fmt.Errorf("new: maxCapacity must be >= 1")
	}
	if maxCapacity < sampler.BatchSize() {
		return nil, fmt.Errorf("new: cannot have batch size (%v) > max "+
			"buffer capacity (%v)", sampler.BatchSize(), maxCapacity)
	}
	if featureSize < 1 || actionSize < 1 {
		return nil, fmt.Errorf("new: feature and action sizes must be "+
			"positive \n\thave(%v, %v)", featureSize, actionSize)
	}

	return newFifoCache(sampler, minCapacity, maxCapacity, featureSize,
		actionSize), nil
}
