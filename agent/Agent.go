// Package agent defines an agent interface
package agent

import (
	"github.com/samuelfneumann/goddpg/timestep"
	"gonum.org/v1/gonum/mat"
)

// Agent determines the implementation details of an agent or algorithm
//
// An Agent is composed of a Learner, which learns weights from stored
// experience, and a ContinuousPolicy which chooses actions in each
// state. The ContinuousPolicy chooses which actions are taken, and the
// Learner uses the resulting experience to update the policy.
type Agent interface {
	Learner
	ContinuousPolicy
}

// Learner implements a learning algorithm that defines how weights are
// updated from environmental experience.
type Learner interface {
	// Step records a single environmental transition and performs any
	// learning updates the transition triggers. The episode parameter
	// is the index of the episode the transition belongs to; callers
	// must pass episode indices in monotonically non-decreasing order.
	Step(t timestep.Transition, episode int) error

	// EndEpisode performs cleanup at the end of an episode
	EndEpisode()
}

// ContinuousPolicy represents a policy over a continuous action space.
//
// Policies determine how agents select actions. The returned action
// vectors are normalized: every component lies in [-1, 1].
type ContinuousPolicy interface {
	// Act returns the action to take in the given state. When explore
	// is true and the policy is in training mode, exploration noise is
	// added to the action before clipping.
	Act(state mat.Vector, explore bool) (*mat.VecDense, error)

	Eval()        // Set policy to evaluation mode
	Train()       // Set policy to training mode
	IsEval() bool // Indicates if in evaluation mode
}
