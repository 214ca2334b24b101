// Package ddpg implements the Deep Deterministic Policy Gradient
// algorithm:
//
//	https://arxiv.org/abs/1509.02971
//
// DDPG is an off-policy actor-critic algorithm for continuous action
// spaces. A deterministic policy (the actor) maps states to actions,
// and an action-value function (the critic) evaluates the actions the
// policy takes. Both networks have an associated target network whose
// weights slowly track the local weights through Polyak averaging, and
// learning updates are computed over minibatches drawn from an
// experience replay buffer. Exploration is performed by perturbing the
// actor's actions with temporally correlated Ornstein-Uhlenbeck noise
// whose scale decays over the course of training.
package ddpg

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/goddpg/agent"
	"github.com/samuelfneumann/goddpg/expreplay"
	"github.com/samuelfneumann/goddpg/network"
	"github.com/samuelfneumann/goddpg/noise"
	"github.com/samuelfneumann/goddpg/solver"
	"github.com/samuelfneumann/goddpg/timestep"
	"github.com/samuelfneumann/goddpg/utils/matutils"
)

// DDPG implements the Deep Deterministic Policy Gradient algorithm.
// The DDPG struct implements the agent.Agent interface.
//
// Five networks are kept across five separate computational graphs:
//
//  1. The behaviour actor, a batch-1 copy of the local actor used for
//     action selection. Its graph holds no gradient nodes, so action
//     selection never computes a backward pass.
//  2. The local critic together with its value-error loss.
//  3. The local actor together with its policy-improvement loss. The
//     loss is the negated mean of a frozen replica of the local critic
//     applied to the actor's predicted actions, so that gradients flow
//     through the replica's weights into the actor's weights only.
//  4. The target actor.
//  5. The target critic.
//
// Weights move between graphs only through Set and Polyak.
type DDPG struct {
	stateSize  int
	actionSize int

	behaviour   network.NeuralNet
	behaviourVM G.VM

	critic        network.StateActionNet
	criticTargets *G.Node
	criticVM      G.VM
	criticSolver  *solver.Solver

	actor       network.NeuralNet
	actorCritic network.StateActionNet
	actorVM     G.VM
	actorSolver *solver.Solver

	actorTarget    network.NeuralNet
	actorTargetVM  G.VM
	criticTarget   network.StateActionNet
	criticTargetVM G.VM

	replay expreplay.ExperienceReplayer
	noise  *noise.OrnsteinUhlenbeck

	batchSize      int
	gamma          float64
	tau            float64
	learningPasses int
	updateEvery    int

	noiseFactor float64
	noiseDecay  float64

	lastEpisodeTrained int
	evalMode           bool
}

// DDPG agents must implement the full agent interface
var _ agent.Agent = (*DDPG)(nil)

// New creates and returns a new DDPG agent. The seed determines the
// initial network weights (for weight initializers with a seedable
// random source), the replay buffer's sampler, and the exploration
// noise process, so two agents constructed with the same configuration
// and seed and fed the same transitions follow identical parameter
// trajectories.
//
// If the configuration names a ModelPath, the actor and critic
// checkpoints in that directory are loaded into the local networks
// before the agent is returned, and the behaviour and target networks
// are set to exact copies of the locals.
func New(c Config, seed uint64) (*DDPG, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	init := c.InitWFn.Seeded(seed)

	// Behaviour actor for action selection
	gBehaviour := G.NewGraph()
	behaviour, err := network.NewActorMLP(c.StateSize, 1, c.ActionSize,
		gBehaviour, c.ActorLayers, c.ActorBiases, init, c.ActorActivations)
	if err != nil {
		return nil, fmt.Errorf("new: could not create behaviour actor: %v",
			err)
	}
	behaviourVM := G.NewTapeMachine(gBehaviour)

	// Local critic and its value-error loss
	gCritic := G.NewGraph()
	critic, err := network.NewCriticMLP(c.StateSize, c.ActionSize,
		c.BatchSize, gCritic, c.CriticLayers, c.CriticBiases, init,
		c.CriticActivations)
	if err != nil {
		return nil, fmt.Errorf("new: could not create critic: %v", err)
	}
	criticTargets := G.NewMatrix(gCritic, tensor.Float64,
		G.WithShape(c.BatchSize, 1), G.WithName("UpdateTarget"),
		G.WithInit(G.Zeroes()))
	criticLosses := G.Must(G.Square(G.Must(G.Sub(critic.Prediction(),
		criticTargets))))
	criticCost := G.Must(G.Mean(criticLosses))
	if _, err := G.Grad(criticCost, critic.Learnables()...); err != nil {
		return nil, fmt.Errorf("new: could not compute critic gradient: %v",
			err)
	}
	criticVM := G.NewTapeMachine(gCritic,
		G.BindDualValues(critic.Learnables()...))

	// Local actor. Its loss is the negated mean action value of its
	// predicted actions under a frozen replica of the local critic, and
	// only the actor's weights are adjusted to minimize it.
	gActor := G.NewGraph()
	actor, err := network.NewActorMLP(c.StateSize, c.BatchSize,
		c.ActionSize, gActor, c.ActorLayers, c.ActorBiases, init,
		c.ActorActivations)
	if err != nil {
		return nil, fmt.Errorf("new: could not create actor: %v", err)
	}
	actorCritic, err := network.NewCriticMLPFromInputs(actor.InputNode(),
		actor.Prediction(), gActor, c.CriticLayers, c.CriticBiases, init,
		c.CriticActivations, "Critic")
	if err != nil {
		return nil, fmt.Errorf("new: could not create critic replica: %v",
			err)
	}
	actorCost := G.Must(G.Neg(G.Must(G.Mean(actorCritic.Prediction()))))
	if _, err := G.Grad(actorCost, actor.Learnables()...); err != nil {
		return nil, fmt.Errorf("new: could not compute actor gradient: %v",
			err)
	}
	actorVM := G.NewTapeMachine(gActor,
		G.BindDualValues(actor.Learnables()...))

	// Target networks
	gActorTarget := G.NewGraph()
	actorTarget, err := network.NewActorMLP(c.StateSize, c.BatchSize,
		c.ActionSize, gActorTarget, c.ActorLayers, c.ActorBiases, init,
		c.ActorActivations)
	if err != nil {
		return nil, fmt.Errorf("new: could not create target actor: %v", err)
	}
	actorTargetVM := G.NewTapeMachine(gActorTarget)

	gCriticTarget := G.NewGraph()
	criticTarget, err := network.NewCriticMLP(c.StateSize, c.ActionSize,
		c.BatchSize, gCriticTarget, c.CriticLayers, c.CriticBiases, init,
		c.CriticActivations)
	if err != nil {
		return nil, fmt.Errorf("new: could not create target critic: %v",
			err)
	}
	criticTargetVM := G.NewTapeMachine(gCriticTarget)

	// Sampling is legal only once occupancy exceeds the batch size
	replay, err := expreplay.Config{
		SampleSize:        c.BatchSize,
		MaxReplayCapacity: c.BufferSize,
		MinReplayCapacity: c.BatchSize + 1,
	}.Create(c.StateSize, c.ActionSize, int64(seed))
	if err != nil {
		return nil, fmt.Errorf("new: could not create replay buffer: %v",
			err)
	}

	d := &DDPG{
		stateSize:  c.StateSize,
		actionSize: c.ActionSize,

		behaviour:   behaviour,
		behaviourVM: behaviourVM,

		critic:        critic,
		criticTargets: criticTargets,
		criticVM:      criticVM,
		criticSolver:  c.CriticSolver,

		actor:       actor,
		actorCritic: actorCritic,
		actorVM:     actorVM,
		actorSolver: c.ActorSolver,

		actorTarget:    actorTarget,
		actorTargetVM:  actorTargetVM,
		criticTarget:   criticTarget,
		criticTargetVM: criticTargetVM,

		replay: replay,
		noise:  noise.New(c.ActionSize, seed),

		batchSize:      c.BatchSize,
		gamma:          c.Gamma,
		tau:            c.Tau,
		learningPasses: c.LearningPasses,
		updateEvery:    c.UpdateEvery,

		noiseFactor: c.StartingNoiseFactor,
		noiseDecay:  c.NoiseDecay,

		lastEpisodeTrained: -1,
	}

	if err := d.syncDerived(); err != nil {
		return nil, fmt.Errorf("new: could not initialize weights: %v", err)
	}

	if c.ModelPath != "" {
		if err := d.Load(c.ModelPath); err != nil {
			return nil, fmt.Errorf("new: %v", err)
		}
	}

	return d, nil
}

// syncDerived sets the weights of every network derived from the local
// actor and critic to equal the local weights
func (d *DDPG) syncDerived() error {
	if err := d.behaviour.Set(d.actor); err != nil {
		return fmt.Errorf("could not set behaviour actor weights: %v", err)
	}
	if err := d.actorTarget.Set(d.actor); err != nil {
		return fmt.Errorf("could not set target actor weights: %v", err)
	}
	if err := d.criticTarget.Set(d.critic); err != nil {
		return fmt.Errorf("could not set target critic weights: %v", err)
	}
	if err := d.actorCritic.Set(d.critic); err != nil {
		return fmt.Errorf("could not set critic replica weights: %v", err)
	}
	return nil
}

// Act returns the action to take in the given state. When explore is
// true and the agent is in training mode, scaled Ornstein-Uhlenbeck
// noise is added to the predicted action. Every component of the
// returned action lies in [-1, 1].
func (d *DDPG) Act(state mat.Vector, explore bool) (*mat.VecDense, error) {
	if state == nil {
		return nil, fmt.Errorf("act: nil state")
	}
	if state.Len() != d.stateSize {
		return nil, fmt.Errorf("act: invalid state size \n\twant(%v)"+
			"\n\thave(%v)", d.stateSize, state.Len())
	}

	obs := make([]float64, d.stateSize)
	for i := range obs {
		obs[i] = state.AtVec(i)
	}
	if err := d.behaviour.SetInput(obs); err != nil {
		return nil, fmt.Errorf("act: could not set state input: %v", err)
	}
	if err := d.behaviourVM.RunAll(); err != nil {
		return nil, fmt.Errorf("act: could not predict action: %v", err)
	}
	action := mat.NewVecDense(d.actionSize,
		valueToSlice(d.behaviour.Output()))
	d.behaviourVM.Reset()

	if explore && !d.evalMode {
		action.AddScaledVec(action, d.noiseFactor, d.noise.Sample())
	}
	matutils.VecClip(action, -1.0, 1.0)

	return action, nil
}

// Step records a single environmental transition and, when the
// transition triggers learning, runs the configured number of learning
// passes.
//
// Learning triggers when all three conditions hold: the replay buffer
// holds strictly more transitions than the batch size, the episode
// index is divisible by the update interval, and the agent has not yet
// trained during this episode. The trained-episode guard starts at -1,
// so an episode numbered 0 is eligible to trigger learning like any
// other. After a triggered update, the noise factor decays and the
// noise process resets to its mean.
func (d *DDPG) Step(t timestep.Transition, episode int) error {
	if err := d.replay.Add(t); err != nil {
		return fmt.Errorf("step: could not store transition: %v", err)
	}

	if d.replay.Capacity() <= d.batchSize || episode%d.updateEvery != 0 ||
		episode == d.lastEpisodeTrained {
		return nil
	}

	for i := 0; i < d.learningPasses; i++ {
		if err := d.learn(); err != nil {
			return fmt.Errorf("step: %v", err)
		}
	}
	d.lastEpisodeTrained = episode
	d.noiseFactor *= d.noiseDecay
	d.noise.Reset()

	return nil
}

// learn runs a single learning pass on a freshly sampled minibatch:
// one critic update, one actor update, then a Polyak update of both
// target networks and a refresh of the behaviour actor.
func (d *DDPG) learn() error {
	states, actions, rewards, nextStates, dones, err := d.replay.Sample()
	if err != nil {
		return fmt.Errorf("learn: could not sample replay buffer: %v", err)
	}

	// Action values of the next states under the target policy
	if err := d.actorTarget.SetInput(nextStates); err != nil {
		return fmt.Errorf("learn: could not set target actor input: %v", err)
	}
	if err := d.actorTargetVM.RunAll(); err != nil {
		return fmt.Errorf("learn: could not predict next actions: %v", err)
	}
	nextActions := valueToSlice(d.actorTarget.Output())
	d.actorTargetVM.Reset()

	if err := d.criticTarget.SetInput(nextStates); err != nil {
		return fmt.Errorf("learn: could not set target critic input: %v",
			err)
	}
	if err := d.criticTarget.SetActions(nextActions); err != nil {
		return fmt.Errorf("learn: could not set target critic actions: %v",
			err)
	}
	if err := d.criticTargetVM.RunAll(); err != nil {
		return fmt.Errorf("learn: could not predict next action values: %v",
			err)
	}
	nextValues := valueToSlice(d.criticTarget.Output())
	d.criticTargetVM.Reset()

	// target = r + gamma * Q'(s', mu'(s')) * (1 - done)
	mask := matutils.VecOnes(d.batchSize)
	mask.SubVec(mask, mat.NewVecDense(d.batchSize, dones))
	target := mat.NewVecDense(d.batchSize, nil)
	target.MulElemVec(mat.NewVecDense(d.batchSize, nextValues), mask)
	target.ScaleVec(d.gamma, target)
	target.AddVec(mat.NewVecDense(d.batchSize, rewards), target)

	// Value-error update of the critic
	if err := d.critic.SetInput(states); err != nil {
		return fmt.Errorf("learn: could not set critic input: %v", err)
	}
	if err := d.critic.SetActions(actions); err != nil {
		return fmt.Errorf("learn: could not set critic actions: %v", err)
	}
	targetTensor := tensor.New(
		tensor.WithBacking(target.RawVector().Data),
		tensor.WithShape(d.batchSize, 1),
	)
	if err := G.Let(d.criticTargets, targetTensor); err != nil {
		return fmt.Errorf("learn: could not set update targets: %v", err)
	}
	if err := d.criticVM.RunAll(); err != nil {
		return fmt.Errorf("learn: could not run critic update: %v", err)
	}
	if err := d.criticSolver.Step(d.critic.Model()); err != nil {
		return fmt.Errorf("learn: could not adapt critic weights: %v", err)
	}
	d.criticVM.Reset()

	// Policy-improvement update of the actor through the refreshed
	// frozen critic replica
	if err := d.actorCritic.Set(d.critic); err != nil {
		return fmt.Errorf("learn: could not refresh critic replica: %v", err)
	}
	if err := d.actor.SetInput(states); err != nil {
		return fmt.Errorf("learn: could not set actor input: %v", err)
	}
	if err := d.actorVM.RunAll(); err != nil {
		return fmt.Errorf("learn: could not run actor update: %v", err)
	}
	if err := d.actorSolver.Step(d.actor.Model()); err != nil {
		return fmt.Errorf("learn: could not adapt actor weights: %v", err)
	}
	d.actorVM.Reset()

	// Move the targets toward the updated locals
	if err := d.criticTarget.Polyak(d.critic, d.tau); err != nil {
		return fmt.Errorf("learn: could not update target critic: %v", err)
	}
	if err := d.actorTarget.Polyak(d.actor, d.tau); err != nil {
		return fmt.Errorf("learn: could not update target actor: %v", err)
	}

	if err := d.behaviour.Set(d.actor); err != nil {
		return fmt.Errorf("learn: could not refresh behaviour actor: %v",
			err)
	}
	return nil
}

// EndEpisode performs cleanup at the end of an episode
func (d *DDPG) EndEpisode() {}

// Eval sets the agent to evaluation mode: actions are taken greedily
// with respect to the behaviour actor, with no exploration noise
func (d *DDPG) Eval() {
	d.evalMode = true
}

// Train sets the agent to training mode
func (d *DDPG) Train() {
	d.evalMode = false
}

// IsEval returns whether the agent is in evaluation mode
func (d *DDPG) IsEval() bool {
	return d.evalMode
}

// NoiseFactor returns the current scale applied to exploration noise
func (d *DDPG) NoiseFactor() float64 {
	return d.noiseFactor
}

// LastEpisodeTrained returns the index of the last episode during
// which the agent learned, or -1 if the agent has never learned
func (d *DDPG) LastEpisodeTrained() int {
	return d.lastEpisodeTrained
}

// BatchSize returns the number of transitions in a learning minibatch
func (d *DDPG) BatchSize() int {
	return d.batchSize
}

// valueToSlice copies the data of a Gorgonia Value into a new slice
func valueToSlice(v G.Value) []float64 {
	switch data := v.Data().(type) {
	case []float64:
		out := make([]float64, len(data))
		copy(out, data)
		return out
	case float64:
		return []float64{data}
	default:
		panic(fmt.Sprintf("valueToSlice: unexpected data type %T", data))
	}
}
