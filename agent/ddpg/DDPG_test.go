package ddpg

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/goddpg/initwfn"
	"github.com/samuelfneumann/goddpg/network"
	"github.com/samuelfneumann/goddpg/solver"
	"github.com/samuelfneumann/goddpg/timestep"
)

// testConfig returns a small agent configuration for testing
func testConfig(t *testing.T, stateSize, actionSize, batch, buffer,
	updateEvery, passes int) Config {
	init, err := initwfn.NewUniform(-0.1, 0.1)
	if err != nil {
		t.Fatalf("could not create weight initializer: %v", err)
	}

	actorSolver, err := solver.NewDefaultAdam(1e-3, batch)
	if err != nil {
		t.Fatalf("could not create actor solver: %v", err)
	}
	criticSolver, err := solver.NewDefaultAdam(1e-3, batch)
	if err != nil {
		t.Fatalf("could not create critic solver: %v", err)
	}

	return Config{
		StateSize:  stateSize,
		ActionSize: actionSize,

		ActorLayers:      []int{8},
		ActorBiases:      []bool{true},
		ActorActivations: []*network.Activation{network.ReLU()},

		CriticLayers:      []int{8},
		CriticBiases:      []bool{true},
		CriticActivations: []*network.Activation{network.ReLU()},

		InitWFn:      init,
		ActorSolver:  actorSolver,
		CriticSolver: criticSolver,

		BufferSize: buffer,
		BatchSize:  batch,

		Gamma: 0.99,
		Tau:   0.05,

		LearningPasses:      passes,
		UpdateEvery:         updateEvery,
		StartingNoiseFactor: 1.0,
		NoiseDecay:          0.9,
	}
}

// randomState returns a random state observation vector
func randomState(random *rand.Rand, size int) *mat.VecDense {
	data := make([]float64, size)
	for i := range data {
		data[i] = random.NormFloat64()
	}
	return mat.NewVecDense(size, data)
}

// randomTransition returns a random environmental transition
func randomTransition(t *testing.T, random *rand.Rand, stateSize,
	actionSize int, done bool) timestep.Transition {
	action := make([]float64, actionSize)
	for i := range action {
		action[i] = random.Float64()*2 - 1
	}

	transition, err := timestep.NewTransition(
		randomState(random, stateSize),
		mat.NewVecDense(actionSize, action),
		random.NormFloat64(),
		randomState(random, stateSize),
		done,
		stateSize,
		actionSize,
	)
	if err != nil {
		t.Fatalf("could not create transition: %v", err)
	}
	return transition
}

// TestActRange ensures that every component of a selected action lies
// in [-1, 1], with and without exploration
func TestActRange(t *testing.T) {
	agent, err := New(testConfig(t, 4, 2, 8, 1000, 1, 1), 14)
	if err != nil {
		t.Fatalf("could not create agent: %v", err)
	}

	random := rand.New(rand.NewSource(33))
	for _, explore := range []bool{true, false} {
		for trial := 0; trial < 25; trial++ {
			state := randomState(random, 4)
			state.ScaleVec(10.0, state)

			action, err := agent.Act(state, explore)
			if err != nil {
				t.Fatalf("could not select action: %v", err)
			}

			for i := 0; i < action.Len(); i++ {
				if action.AtVec(i) < -1.0 || action.AtVec(i) > 1.0 {
					t.Errorf("explore %v: action component %v out of "+
						"range: %v", explore, i, action.AtVec(i))
				}
			}
		}
	}
}

// TestEvalActions ensures that in evaluation mode action selection is
// deterministic and free of exploration noise
func TestEvalActions(t *testing.T) {
	agent, err := New(testConfig(t, 4, 2, 8, 1000, 1, 1), 6)
	if err != nil {
		t.Fatalf("could not create agent: %v", err)
	}

	if agent.IsEval() {
		t.Error("agent should begin in training mode")
	}
	agent.Eval()
	if !agent.IsEval() {
		t.Error("agent should be in evaluation mode after Eval()")
	}

	random := rand.New(rand.NewSource(7))
	state := randomState(random, 4)

	first, err := agent.Act(state, true)
	if err != nil {
		t.Fatalf("could not select action: %v", err)
	}
	second, err := agent.Act(state, true)
	if err != nil {
		t.Fatalf("could not select action: %v", err)
	}

	for i := 0; i < first.Len(); i++ {
		if first.AtVec(i) != second.AtVec(i) {
			t.Errorf("evaluation actions differ at index %v: %v != %v", i,
				first.AtVec(i), second.AtVec(i))
		}
	}

	agent.Train()
	if agent.IsEval() {
		t.Error("agent should be in training mode after Train()")
	}
}

// TestLearningTrigger ensures that learning triggers only once the
// replay buffer holds more transitions than the batch size, at most
// once per episode, and that a triggered update decays the noise
// factor
func TestLearningTrigger(t *testing.T) {
	batch := 8
	agent, err := New(testConfig(t, 4, 2, batch, 1000, 1, 1), 41)
	if err != nil {
		t.Fatalf("could not create agent: %v", err)
	}

	random := rand.New(rand.NewSource(12))

	// The first batchSize transitions never trigger learning
	for i := 0; i < batch; i++ {
		err := agent.Step(randomTransition(t, random, 4, 2, false), 0)
		if err != nil {
			t.Fatalf("could not step agent: %v", err)
		}
		if agent.LastEpisodeTrained() != -1 {
			t.Fatalf("agent learned with only %v stored transitions", i+1)
		}
	}
	if agent.NoiseFactor() != 1.0 {
		t.Errorf("noise factor decayed before learning: %v",
			agent.NoiseFactor())
	}

	// The next transition pushes occupancy past the batch size
	if err := agent.Step(randomTransition(t, random, 4, 2, false),
		0); err != nil {
		t.Fatalf("could not step agent: %v", err)
	}
	if agent.LastEpisodeTrained() != 0 {
		t.Fatal("agent did not learn once occupancy exceeded the batch size")
	}
	if math.Abs(agent.NoiseFactor()-0.9) > 1e-12 {
		t.Errorf("incorrect noise factor after one update: expected 0.9, "+
			"received %v", agent.NoiseFactor())
	}

	// Learning happens at most once per episode
	if err := agent.Step(randomTransition(t, random, 4, 2, false),
		0); err != nil {
		t.Fatalf("could not step agent: %v", err)
	}
	if math.Abs(agent.NoiseFactor()-0.9) > 1e-12 {
		t.Error("agent learned twice during the same episode")
	}

	// A new episode triggers learning again
	if err := agent.Step(randomTransition(t, random, 4, 2, true),
		1); err != nil {
		t.Fatalf("could not step agent: %v", err)
	}
	if agent.LastEpisodeTrained() != 1 {
		t.Error("agent did not learn on a new episode")
	}
	if math.Abs(agent.NoiseFactor()-0.81) > 1e-12 {
		t.Errorf("incorrect noise factor after two updates: expected "+
			"0.81, received %v", agent.NoiseFactor())
	}
}

// TestUpdateEvery ensures that learning triggers only on episodes
// divisible by the update interval
func TestUpdateEvery(t *testing.T) {
	batch := 8
	agent, err := New(testConfig(t, 4, 2, batch, 1000, 2, 1), 5)
	if err != nil {
		t.Fatalf("could not create agent: %v", err)
	}

	random := rand.New(rand.NewSource(91))

	// Fill the buffer past the batch size during an episode that is
	// not divisible by the update interval
	for i := 0; i < 2*batch; i++ {
		err := agent.Step(randomTransition(t, random, 4, 2, false), 1)
		if err != nil {
			t.Fatalf("could not step agent: %v", err)
		}
	}
	if agent.LastEpisodeTrained() != -1 {
		t.Error("agent learned on an episode not divisible by the update " +
			"interval")
	}

	if err := agent.Step(randomTransition(t, random, 4, 2, false),
		2); err != nil {
		t.Fatalf("could not step agent: %v", err)
	}
	if agent.LastEpisodeTrained() != 2 {
		t.Error("agent did not learn on an episode divisible by the " +
			"update interval")
	}
}

// TestSaveLoad ensures that an agent constructed from a checkpoint
// selects the same actions as the agent that saved the checkpoint
func TestSaveLoad(t *testing.T) {
	config := testConfig(t, 4, 2, 8, 1000, 1, 1)

	saved, err := New(config, 3)
	if err != nil {
		t.Fatalf("could not create agent: %v", err)
	}

	// Learn for a few episodes so the saved weights differ from any
	// freshly initialized network
	random := rand.New(rand.NewSource(28))
	for episode := 0; episode < 3; episode++ {
		for i := 0; i < 10; i++ {
			err := agentStep(saved, t, random, episode)
			if err != nil {
				t.Fatalf("could not step agent: %v", err)
			}
		}
	}

	dir := t.TempDir()
	if err := saved.Save(dir); err != nil {
		t.Fatalf("could not save agent: %v", err)
	}

	config.ModelPath = dir
	loaded, err := New(config, 99)
	if err != nil {
		t.Fatalf("could not create agent from checkpoint: %v", err)
	}

	saved.Eval()
	loaded.Eval()
	for trial := 0; trial < 10; trial++ {
		state := randomState(random, 4)

		expected, err := saved.Act(state, false)
		if err != nil {
			t.Fatalf("could not select action: %v", err)
		}
		received, err := loaded.Act(state, false)
		if err != nil {
			t.Fatalf("could not select action: %v", err)
		}

		for i := 0; i < expected.Len(); i++ {
			if math.Abs(expected.AtVec(i)-received.AtVec(i)) > 1e-12 {
				t.Errorf("actions differ at index %v: expected %v, "+
					"received %v", i, expected.AtVec(i), received.AtVec(i))
			}
		}
	}
}

// TestSeededDeterminism ensures that two agents constructed with
// identical configurations and seeds and fed an identical transition
// sequence select identical actions after learning
func TestSeededDeterminism(t *testing.T) {
	first, err := New(testConfig(t, 4, 2, 8, 1000, 1, 1), 7)
	if err != nil {
		t.Fatalf("could not create agent: %v", err)
	}
	second, err := New(testConfig(t, 4, 2, 8, 1000, 1, 1), 7)
	if err != nil {
		t.Fatalf("could not create agent: %v", err)
	}

	// Both agents observe the exact same transitions
	random := rand.New(rand.NewSource(55))
	transitions := make([]timestep.Transition, 30)
	for i := range transitions {
		transitions[i] = randomTransition(t, random, 4, 2, i%10 == 9)
	}

	for episode := 0; episode < 3; episode++ {
		for i := 0; i < 10; i++ {
			transition := transitions[episode*10+i]
			if err := first.Step(transition, episode); err != nil {
				t.Fatalf("could not step agent: %v", err)
			}
			if err := second.Step(transition, episode); err != nil {
				t.Fatalf("could not step agent: %v", err)
			}
		}
	}

	first.Eval()
	second.Eval()
	for trial := 0; trial < 10; trial++ {
		state := randomState(random, 4)

		expected, err := first.Act(state, false)
		if err != nil {
			t.Fatalf("could not select action: %v", err)
		}
		received, err := second.Act(state, false)
		if err != nil {
			t.Fatalf("could not select action: %v", err)
		}

		for i := 0; i < expected.Len(); i++ {
			if expected.AtVec(i) != received.AtVec(i) {
				t.Errorf("identically seeded agents diverge at index %v: "+
					"%v != %v", i, expected.AtVec(i), received.AtVec(i))
			}
		}
	}
}

// agentStep steps an agent with a random transition
func agentStep(agent *DDPG, t *testing.T, random *rand.Rand,
	episode int) error {
	return agent.Step(randomTransition(t, random, 4, 2, false), episode)
}

// TestInvalidConfig ensures that agents cannot be constructed from
// inconsistent configurations
func TestInvalidConfig(t *testing.T) {
	config := testConfig(t, 4, 2, 8, 1000, 1, 1)
	config.StateSize = 0
	if _, err := New(config, 1); err == nil {
		t.Error("expected an error for a non-positive state size")
	}

	config = testConfig(t, 4, 2, 8, 1000, 1, 1)
	config.BufferSize = config.BatchSize
	if _, err := New(config, 1); err == nil {
		t.Error("expected an error when the buffer cannot exceed the " +
			"batch size")
	}

	config = testConfig(t, 4, 2, 8, 1000, 1, 1)
	config.ActorActivations = nil
	if _, err := New(config, 1); err == nil {
		t.Error("expected an error for mismatched actor activations")
	}
}

// TestActInvalidState ensures that action selection validates the
// state vector
func TestActInvalidState(t *testing.T) {
	agent, err := New(testConfig(t, 4, 2, 8, 1000, 1, 1), 2)
	if err != nil {
		t.Fatalf("could not create agent: %v", err)
	}

	if _, err := agent.Act(nil, false); err == nil {
		t.Error("expected an error for a nil state")
	}

	if _, err := agent.Act(mat.NewVecDense(3, nil), false); err == nil {
		t.Error("expected an error for a state of the wrong size")
	}
}
