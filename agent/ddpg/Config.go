package ddpg

import (
	"fmt"

	"github.com/samuelfneumann/goddpg/initwfn"
	"github.com/samuelfneumann/goddpg/network"
	"github.com/samuelfneumann/goddpg/solver"
)

// Default hyperparameters, following the values commonly used for DDPG
// on normalized continuous-control tasks
const (
	DefaultBufferSize     int     = 1 << 22
	DefaultBatchSize      int     = 128
	DefaultGamma          float64 = 0.99
	DefaultTau            float64 = 1e-2
	DefaultLRActor        float64 = 1e-3
	DefaultLRCritic       float64 = 1e-3
	DefaultLearningPasses int     = 16
	DefaultNoiseFactor    float64 = 1.0
	DefaultNoiseDecay     float64 = 0.995
	DefaultUpdateEvery    int     = 1 << 4
)

// Config implements a configuration for a DDPG agent
type Config struct {
	StateSize  int // Size of state feature vectors
	ActionSize int // Size of action vectors

	// ModelPath optionally holds the path to a directory containing
	// previously saved actor and critic checkpoint files. When set,
	// the checkpoints are loaded into the local networks after
	// construction, and the target networks are re-initialized as
	// exact copies of the local networks.
	ModelPath string

	// Actor network architecture
	ActorLayers      []int
	ActorBiases      []bool
	ActorActivations []*network.Activation

	// Critic network architecture
	CriticLayers      []int
	CriticBiases      []bool
	CriticActivations []*network.Activation

	// Initialization algorithm for weights
	InitWFn *initwfn.InitWFn

	ActorSolver  *solver.Solver // Adapts the actor's weights
	CriticSolver *solver.Solver // Adapts the critic's weights

	// Experience replay parameters
	BufferSize int
	BatchSize  int

	Gamma float64 // Reward discount, in [0, 1]
	Tau   float64 // Polyak averaging constant, in (0, 1]

	// LearningPasses is the number of learn-update cycles run each
	// time learning triggers; each cycle draws its own batch
	LearningPasses int

	// UpdateEvery is the episode interval at which learning triggers
	UpdateEvery int

	// Exploration noise scaling. The noise factor starts at
	// StartingNoiseFactor and is multiplied by NoiseDecay each time
	// the agent learns.
	StartingNoiseFactor float64
	NoiseDecay          float64
}

// DefaultConfig returns a Config with the default DDPG architecture
// and hyperparameters for an environment with the argument state and
// action sizes.
func DefaultConfig(stateSize, actionSize int) (Config, error) {
	init, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		return Config{}, fmt.Errorf("defaultconfig: %v", err)
	}

	actorSolver, err := solver.NewDefaultAdam(DefaultLRActor,
		DefaultBatchSize)
	if err != nil {
		return Config{}, fmt.Errorf("defaultconfig: %v", err)
	}

	criticSolver, err := solver.NewDefaultAdam(DefaultLRCritic,
		DefaultBatchSize)
	if err != nil {
		return Config{}, fmt.Errorf("defaultconfig: %v", err)
	}

	return Config{
		StateSize:  stateSize,
		ActionSize: actionSize,

		ActorLayers:      []int{400, 300},
		ActorBiases:      []bool{true, true},
		ActorActivations: []*network.Activation{network.ReLU(),
			network.ReLU()},

		CriticLayers:      []int{400, 300},
		CriticBiases:      []bool{true, true},
		CriticActivations: []*network.Activation{network.ReLU(),
			network.ReLU()},

		InitWFn:      init,
		ActorSolver:  actorSolver,
		CriticSolver: criticSolver,

		BufferSize: DefaultBufferSize,
		BatchSize:  DefaultBatchSize,

		Gamma: DefaultGamma,
		Tau:   DefaultTau,

		LearningPasses:      DefaultLearningPasses,
		UpdateEvery:         DefaultUpdateEvery,
		StartingNoiseFactor: DefaultNoiseFactor,
		NoiseDecay:          DefaultNoiseDecay,
	}, nil
}

// Validate checks a Config to ensure it is a valid configuration of a
// DDPG agent. Hyperparameter ranges (e.g. Gamma in [0, 1], Tau in
// (0, 1]) are documented caller responsibilities and are not enforced
// here.
func (c Config) Validate() error {
	if c.StateSize < 1 || c.ActionSize < 1 {
		return fmt.Errorf("validate: state and action sizes must be "+
			"positive \n\thave(%v, %v)", c.StateSize, c.ActionSize)
	}

	if len(c.ActorLayers) != len(c.ActorBiases) {
		return fmt.Errorf("validate: invalid number of actor biases"+
			"\n\twant(%v)\n\thave(%v)", len(c.ActorLayers),
			len(c.ActorBiases))
	}
	if len(c.ActorLayers) != len(c.ActorActivations) {
		return fmt.Errorf("validate: invalid number of actor activations"+
			"\n\twant(%v)\n\thave(%v)", len(c.ActorLayers),
			len(c.ActorActivations))
	}

	if len(c.CriticLayers) != len(c.CriticBiases) {
		return fmt.Errorf("validate: invalid number of critic biases"+
			"\n\twant(%v)\n\thave(%v)", len(c.CriticLayers),
			len(c.CriticBiases))
	}
	if len(c.CriticLayers) != len(c.CriticActivations) {
		return fmt.Errorf("validate: invalid number of critic activations"+
			"\n\twant(%v)\n\thave(%v)", len(c.CriticLayers),
			len(c.CriticActivations))
	}

	if c.InitWFn == nil {
		return fmt.Errorf("validate: no weight initializer given")
	}
	if c.ActorSolver == nil || c.CriticSolver == nil {
		return fmt.Errorf("validate: both actor and critic solvers are " +
			"required")
	}

	if c.BatchSize < 1 {
		return fmt.Errorf("validate: batch size must be positive "+
			"\n\thave(%v)", c.BatchSize)
	}
	if c.BufferSize <= c.BatchSize {
		return fmt.Errorf("validate: buffer size must exceed batch size "+
			"\n\thave(%v, %v)", c.BufferSize, c.BatchSize)
	}

	if c.LearningPasses < 1 {
		return fmt.Errorf("validate: learning passes must be positive "+
			"\n\thave(%v)", c.LearningPasses)
	}
	if c.UpdateEvery < 1 {
		return fmt.Errorf("validate: agents must learn at positive "+
			"episode intervals \n\twant(>0) \n\thave(%v)", c.UpdateEvery)
	}

	return nil
}
