package network

import (
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	G "gorgonia.org/gorgonia"
)

// valueData copies the data of a learnable's value into a new slice
func valueData(node *G.Node) []float64 {
	switch data := node.Value().Data().(type) {
	case []float64:
		out := make([]float64, len(data))
		copy(out, data)
		return out
	case float64:
		return []float64{data}
	default:
		panic("unexpected data type")
	}
}

// testActor returns a small policy network for testing
func testActor(t *testing.T, batch int, init G.InitWFn) NeuralNet {
	g := G.NewGraph()
	net, err := NewActorMLP(3, batch, 2, g, []int{6}, []bool{true}, init,
		[]*Activation{ReLU()})
	if err != nil {
		t.Fatalf("could not create actor: %v", err)
	}
	return net
}

// testCritic returns a small action-value network for testing
func testCritic(t *testing.T, batch int, init G.InitWFn) StateActionNet {
	g := G.NewGraph()
	net, err := NewCriticMLP(3, 2, batch, g, []int{6}, []bool{true}, init,
		[]*Activation{ReLU()})
	if err != nil {
		t.Fatalf("could not create critic: %v", err)
	}
	return net
}

// TestSet ensures that setting one network's weights from another
// results in identical learnables
func TestSet(t *testing.T) {
	source := testActor(t, 2, G.Uniform(-1.0, 1.0))
	dest := testActor(t, 2, G.Uniform(-1.0, 1.0))

	if err := dest.Set(source); err != nil {
		t.Fatalf("could not set weights: %v", err)
	}

	sourceNodes := source.Learnables()
	destNodes := dest.Learnables()
	for i := range destNodes {
		sourceData := valueData(sourceNodes[i])
		destData := valueData(destNodes[i])

		for j := range destData {
			if destData[j] != sourceData[j] {
				t.Errorf("learnable %v differs at index %v: expected %v, "+
					"received %v", i, j, sourceData[j], destData[j])
			}
		}
	}
}

// TestPolyak ensures that the Polyak average of a zeroed network and a
// source network scales the source weights by tau
func TestPolyak(t *testing.T) {
	taus := []float64{0.0, 0.25, 1.0}

	for _, tau := range taus {
		source := testCritic(t, 2, G.Uniform(-1.0, 1.0))
		dest := testCritic(t, 2, G.Zeroes())

		if err := dest.Polyak(source, tau); err != nil {
			t.Fatalf("could not compute Polyak average: %v", err)
		}

		sourceNodes := source.Learnables()
		destNodes := dest.Learnables()
		for i := range destNodes {
			sourceData := valueData(sourceNodes[i])
			destData := valueData(destNodes[i])

			for j := range destData {
				expected := tau * sourceData[j]
				if math.Abs(destData[j]-expected) > 1e-12 {
					t.Errorf("tau %v: learnable %v differs at index %v: "+
						"expected %v, received %v", tau, i, j, expected,
						destData[j])
				}
			}
		}
	}
}

// TestActorOutputRange ensures that every component of a policy
// network's prediction lies in [-1, 1]
func TestActorOutputRange(t *testing.T) {
	batch := 4
	net := testActor(t, batch, G.Uniform(-3.0, 3.0))
	vm := G.NewTapeMachine(net.Graph())
	defer vm.Close()

	random := rand.New(rand.NewSource(1823))
	for trial := 0; trial < 10; trial++ {
		input := make([]float64, batch*net.Features())
		for i := range input {
			input[i] = random.NormFloat64() * 10
		}
		if err := net.SetInput(input); err != nil {
			t.Fatalf("could not set input: %v", err)
		}

		if err := vm.RunAll(); err != nil {
			t.Fatalf("could not run forward pass: %v", err)
		}
		output := net.Output().Data().([]float64)
		vm.Reset()

		for i, value := range output {
			if value < -1.0 || value > 1.0 {
				t.Errorf("action component %v out of range: %v", i, value)
			}
		}
	}
}

// TestCriticOutput ensures that an action-value network predicts one
// scalar value per batch row
func TestCriticOutput(t *testing.T) {
	batch := 5
	net := testCritic(t, batch, G.Uniform(-1.0, 1.0))
	vm := G.NewTapeMachine(net.Graph())
	defer vm.Close()

	random := rand.New(rand.NewSource(97))
	states := make([]float64, batch*net.Features())
	for i := range states {
		states[i] = random.NormFloat64()
	}
	actions := make([]float64, batch*net.Actions())
	for i := range actions {
		actions[i] = random.Float64()*2 - 1
	}

	if err := net.SetInput(states); err != nil {
		t.Fatalf("could not set states: %v", err)
	}
	if err := net.SetActions(actions); err != nil {
		t.Fatalf("could not set actions: %v", err)
	}
	if err := vm.RunAll(); err != nil {
		t.Fatalf("could not run forward pass: %v", err)
	}
	defer vm.Reset()

	output := net.Output().Data().([]float64)
	if len(output) != batch {
		t.Errorf("incorrect number of predictions: expected %v, received "+
			"%v", batch, len(output))
	}
}

// TestDerivedCriticActions ensures that a critic built on another
// network's prediction node cannot have its actions set directly
func TestDerivedCriticActions(t *testing.T) {
	g := G.NewGraph()
	actor, err := NewActorMLP(3, 2, 2, g, []int{6}, []bool{true},
		G.Uniform(-1.0, 1.0), []*Activation{ReLU()})
	if err != nil {
		t.Fatalf("could not create actor: %v", err)
	}

	critic, err := NewCriticMLPFromInputs(actor.InputNode(),
		actor.Prediction(), g, []int{6}, []bool{true}, G.Uniform(-1.0, 1.0),
		[]*Activation{ReLU()}, "Critic")
	if err != nil {
		t.Fatalf("could not create critic: %v", err)
	}

	err = critic.SetActions([]float64{0.0, 0.0, 0.0, 0.0})
	if err == nil {
		t.Error("expected an error when setting actions on a derived critic")
	}
}

// TestSaveLoadNet ensures that a network saved to disk and loaded back
// has identical weights
func TestSaveLoadNet(t *testing.T) {
	net := testCritic(t, 3, G.Uniform(-1.0, 1.0))

	filename := filepath.Join(t.TempDir(), "checkpoint.bin")
	if err := SaveNetTo(net, filename); err != nil {
		t.Fatalf("could not save network: %v", err)
	}

	loaded, err := LoadNet(filename)
	if err != nil {
		t.Fatalf("could not load network: %v", err)
	}

	nodes := net.Learnables()
	loadedNodes := loaded.Learnables()
	if len(nodes) != len(loadedNodes) {
		t.Fatalf("incorrect number of learnables: expected %v, received "+
			"%v", len(nodes), len(loadedNodes))
	}

	for i := range nodes {
		data := valueData(nodes[i])
		loadedData := valueData(loadedNodes[i])

		for j := range data {
			if data[j] != loadedData[j] {
				t.Errorf("learnable %v differs at index %v: expected %v, "+
					"received %v", i, j, data[j], loadedData[j])
			}
		}
	}
}
