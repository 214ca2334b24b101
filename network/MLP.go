package network

import (
	"bytes"
	"encoding/gob"
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// mlp implements a multi-layered perceptron. The same concrete type
// backs both deterministic policy networks (state -> action, tanh
// head) and action-value critics (state, action -> value, linear
// head); critics carry an additional action input node that is
// concatenated with the state input along the feature dimension.
type mlp struct {
	g      *G.ExprGraph
	layers []Layer

	stateInput  *G.Node
	actionInput *G.Node // nil for policy networks

	// ownsActionInput denotes whether the action input is an input
	// node of the graph. Critics built on top of another network's
	// prediction node (e.g. for a policy-improvement loss) do not own
	// their action input and cannot have action values set directly.
	ownsActionInput bool

	numOutputs int
	numInputs  int
	numActions int
	batchSize  int

	// Data needed for gobbing
	hiddenSizes []int
	biases      []bool
	activations []*Activation

	learnables G.Nodes
	model      []G.ValueGrad

	prediction *G.Node
	predVal    G.Value
}

// validateArch ensures that a coherent MLP architecture was given
func validateArch(hiddenSizes []int, biases []bool,
	activations []*Activation) error {
	if len(hiddenSizes) != len(activations) {
		return fmt.Errorf("invalid number of activations\n\twant(%d)"+
			"\n\thave(%d)", len(hiddenSizes), len(activations))
	}
	if len(hiddenSizes) != len(biases) {
		return fmt.Errorf("invalid number of biases\n\twant(%d)"+
			"\n\thave(%d)", len(hiddenSizes), len(biases))
	}
	return nil
}

// NewActorMLP creates and returns a new deterministic policy MLP on
// graph g, mapping a batch of state vectors to a batch of action
// vectors. A final layer of size actions with a bias unit and a tanh
// activation is always added, so that every component of a raw
// predicted action lies in [-1, 1].
//
// For index i, hiddenSizes[i] is the number of units in hidden layer
// i; biases[i] denotes whether hidden layer i has a bias unit; and
// activations[i] is the activation function of hidden layer i. The
// parameter init determines the weight initialization scheme.
func NewActorMLP(features, batch, actions int, g *G.ExprGraph,
	hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*Activation) (NeuralNet, error) {
	if err := validateArch(hiddenSizes, biases, activations); err != nil {
		return nil, fmt.Errorf("newactormlp: %v", err)
	}

	// Final tanh layer predicting the action
	hiddenSizes = append(append([]int{}, hiddenSizes...), actions)
	biases = append(append([]bool{}, biases...), true)
	activations = append(append([]*Activation{}, activations...), TanH())

	stateInput := G.NewMatrix(g, tensor.Float64,
		G.WithShape(batch, features), G.WithName("ActorState"),
		G.WithInit(G.Zeroes()))

	layers := addFCLayers(g, hiddenSizes, biases, activations, init,
		features, "Actor")

	network := &mlp{
		g:           g,
		layers:      layers,
		stateInput:  stateInput,
		numOutputs:  actions,
		numInputs:   features,
		numActions:  0,
		batchSize:   batch,
		hiddenSizes: hiddenSizes,
		biases:      biases,
		activations: activations,
	}
	if err := network.fwd(); err != nil {
		return nil, fmt.Errorf("newactormlp: could not compute forward "+
			"pass: %v", err)
	}

	return network, nil
}

// NewCriticMLP creates and returns a new action-value MLP on graph g,
// mapping a batch of (state, action) pairs to a batch of scalar value
// estimates. The state and action inputs are concatenated along the
// feature dimension before the first layer, and a final linear layer
// of size 1 with a bias unit is always added.
func NewCriticMLP(features, actions, batch int, g *G.ExprGraph,
	hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*Activation) (StateActionNet, error) {
	stateInput := G.NewMatrix(g, tensor.Float64,
		G.WithShape(batch, features), G.WithName("CriticState"),
		G.WithInit(G.Zeroes()))
	actionInput := G.NewMatrix(g, tensor.Float64,
		G.WithShape(batch, actions), G.WithName("CriticAction"),
		G.WithInit(G.Zeroes()))

	network, err := NewCriticMLPFromInputs(stateInput, actionInput, g,
		hiddenSizes, biases, init, activations, "Critic")
	if err != nil {
		return nil, err
	}
	network.(*mlp).ownsActionInput = true

	return network, nil
}

// NewCriticMLPFromInputs creates and returns a new action-value MLP
// whose state and action inputs are existing nodes of graph g. The
// action input may be the prediction node of another network on the
// same graph, in which case the critic's forward pass extends that
// network's computation; such critics cannot have action values set
// directly with SetActions. The prefix parameter namespaces the
// critic's weight nodes within g.
func NewCriticMLPFromInputs(stateInput, actionInput *G.Node,
	g *G.ExprGraph, hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*Activation, prefix string) (StateActionNet, error) {
	if err := validateArch(hiddenSizes, biases, activations); err != nil {
		return nil, fmt.Errorf("newcriticmlp: %v", err)
	}
	if stateInput.Graph() != g || actionInput.Graph() != g {
		return nil, fmt.Errorf("newcriticmlp: inputs must share the " +
			"critic's graph")
	}
	if !stateInput.IsMatrix() || !actionInput.IsMatrix() {
		return nil, fmt.Errorf("newcriticmlp: inputs must be matrices")
	}
	if stateInput.Shape()[0] != actionInput.Shape()[0] {
		return nil, fmt.Errorf("newcriticmlp: inconsistent batch size "+
			"\n\thave(%v, %v)", stateInput.Shape()[0], actionInput.Shape()[0])
	}

	batch := stateInput.Shape()[0]
	features := stateInput.Shape()[1]
	actions := actionInput.Shape()[1]

	// Final linear layer predicting the scalar action value
	hiddenSizes = append(append([]int{}, hiddenSizes...), 1)
	biases = append(append([]bool{}, biases...), true)
	activations = append(append([]*Activation{}, activations...), Identity())

	layers := addFCLayers(g, hiddenSizes, biases, activations, init,
		features+actions, prefix)

	network := &mlp{
		g:               g,
		layers:          layers,
		stateInput:      stateInput,
		actionInput:     actionInput,
		ownsActionInput: false,
		numOutputs:      1,
		numInputs:       features,
		numActions:      actions,
		batchSize:       batch,
		hiddenSizes:     hiddenSizes,
		biases:          biases,
		activations:     activations,
	}
	if err := network.fwd(); err != nil {
		return nil, fmt.Errorf("newcriticmlp: could not compute forward "+
			"pass: %v", err)
	}

	return network, nil
}

// Graph returns the computational graph of the mlp
func (e *mlp) Graph() *G.ExprGraph {
	return e.g
}

// BatchSize returns the batch size of inputs to the network
func (e *mlp) BatchSize() int {
	return e.batchSize
}

// Features returns the number of features in a single state
// observation vector that the network takes as input
func (e *mlp) Features() int {
	return e.numInputs
}

// Actions returns the number of action features the network takes as
// input. Policy networks take no action input and return 0.
func (e *mlp) Actions() int {
	return e.numActions
}

// Outputs returns the number of outputs from the network
func (e *mlp) Outputs() int {
	return e.numOutputs
}

// InputNode returns the state input node of the mlp
func (e *mlp) InputNode() *G.Node {
	return e.stateInput
}

// SetInput sets the value of the state input node before running the
// forward pass
func (e *mlp) SetInput(input []float64) error {
	if len(input) != e.numInputs*e.batchSize {
		return fmt.Errorf("setinput: invalid number of inputs\n\twant(%v)"+
			"\n\thave(%v)", e.numInputs*e.batchSize, len(input))
	}
	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(e.stateInput.Shape()...),
	)
	return G.Let(e.stateInput, inputTensor)
}

// SetActions sets the value of the action input node before running
// the forward pass
func (e *mlp) SetActions(actions []float64) error {
	if e.actionInput == nil {
		return fmt.Errorf("setactions: network has no action input")
	}
	if !e.ownsActionInput {
		return fmt.Errorf("setactions: action input is computed by " +
			"another network")
	}
	if len(actions) != e.numActions*e.batchSize {
		return fmt.Errorf("setactions: invalid number of actions"+
			"\n\twant(%v)\n\thave(%v)", e.numActions*e.batchSize,
			len(actions))
	}
	actionTensor := tensor.New(
		tensor.WithBacking(actions),
		tensor.WithShape(e.actionInput.Shape()...),
	)
	return G.Let(e.actionInput, actionTensor)
}

// Set sets the weights of an mlp to be equal to the weights of another
// network with an identical architecture
func (dest *mlp) Set(source NeuralNet) error {
	sourceNodes := source.Learnables()
	nodes := dest.Learnables()
	if len(nodes) != len(sourceNodes) {
		return fmt.Errorf("set: mismatched number of learnables"+
			"\n\twant(%v)\n\thave(%v)", len(nodes), len(sourceNodes))
	}

	for i, destLearnable := range nodes {
		sourceLearnable := sourceNodes[i].Clone()
		err := G.Let(destLearnable, sourceLearnable.(*G.Node).Value())
		if err != nil {
			return err
		}
	}
	return nil
}

// Polyak sets the weights of an mlp to be a Polyak average between its
// existing weights and the weights of another network with an
// identical architecture
func (dest *mlp) Polyak(source NeuralNet, tau float64) error {
	sourceNodes := source.Learnables()
	nodes := dest.Learnables()
	if len(nodes) != len(sourceNodes) {
		return fmt.Errorf("polyak: mismatched number of learnables"+
			"\n\twant(%v)\n\thave(%v)", len(nodes), len(sourceNodes))
	}

	for i := range nodes {
		weights := nodes[i].Value().(*tensor.Dense)
		sourceWeights := sourceNodes[i].Value().(*tensor.Dense)

		weights, err := weights.MulScalar(1-tau, true)
		if err != nil {
			return err
		}

		sourceWeights, err = sourceWeights.MulScalar(tau, true)
		if err != nil {
			return err
		}

		var newWeights *tensor.Dense
		newWeights, err = weights.Add(sourceWeights)
		if err != nil {
			return err
		}

		err = G.Let(nodes[i], newWeights)
		if err != nil {
			return err
		}
	}
	return nil
}

// Learnables returns the learnable nodes in an mlp
func (e *mlp) Learnables() G.Nodes {
	// Lazy instantiation
	if e.learnables == nil {
		e.learnables = e.computeLearnables()
	}
	return e.learnables
}

// computeLearnables computes all the learnables for the network
func (e *mlp) computeLearnables() G.Nodes {
	learnables := make([]*G.Node, 0, 2*len(e.layers))

	for i := range e.layers {
		learnables = append(learnables, e.layers[i].Weights())
		if bias := e.layers[i].Bias(); bias != nil {
			learnables = append(learnables, bias)
		}
	}
	return G.Nodes(learnables)
}

// Model returns the learnable nodes with their gradients
func (e *mlp) Model() []G.ValueGrad {
	// Lazy instantiation
	if e.model == nil {
		e.model = e.computeModel()
	}
	return e.model
}

// computeModel computes the model for the network
func (e *mlp) computeModel() []G.ValueGrad {
	model := make([]G.ValueGrad, 0, 2*len(e.layers))
	for _, node := range e.Learnables() {
		model = append(model, node)
	}
	return model
}

// fwd performs the forward pass of the mlp on its input node(s)
func (e *mlp) fwd() error {
	pred := e.stateInput
	if e.actionInput != nil {
		pred = G.Must(G.Concat(1, e.stateInput, e.actionInput))
	}

	var err error
	for i, l := range e.layers {
		if pred, err = l.fwd(pred); err != nil {
			return fmt.Errorf("fwd: could not compute forward pass of "+
				"layer %v: %v", i, err)
		}
	}

	e.prediction = pred

	G.Read(e.prediction, &e.predVal)

	return nil
}

// Output returns the output of the mlp
func (e *mlp) Output() G.Value {
	return e.predVal
}

// Prediction returns the node of the computational graph that stores
// the output of the mlp
func (e *mlp) Prediction() *G.Node {
	return e.prediction
}

// GobEncode implements the gob.GobEncoder interface
func (e *mlp) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	err := enc.Encode(e.numInputs)
	if err != nil {
		return nil, fmt.Errorf("gobencode: could not encode number of inputs")
	}

	err = enc.Encode(e.numActions)
	if err != nil {
		return nil, fmt.Errorf("gobencode: could not encode number of " +
			"action inputs")
	}

	err = enc.Encode(e.numOutputs)
	if err != nil {
		return nil, fmt.Errorf("gobencode: could not encode number of outputs")
	}

	err = enc.Encode(e.BatchSize())
	if err != nil {
		return nil, fmt.Errorf("gobencode: could not encode batch size")
	}

	err = enc.Encode(e.hiddenSizes)
	if err != nil {
		return nil, fmt.Errorf("gobencode: could not encode hidden sizes")
	}

	err = enc.Encode(e.biases)
	if err != nil {
		return nil, fmt.Errorf("gobencode: could not encode biases")
	}

	err = enc.Encode(e.activations)
	if err != nil {
		return nil, fmt.Errorf("gobencode: could not encode activations")
	}

	// Store the layer weights
	for i, layer := range e.layers {
		err := enc.Encode(layer.(*fcLayer))
		if err != nil {
			return nil, fmt.Errorf("gobencode: could not encode layer "+
				"%v: %v", i, err)
		}
	}

	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface. The decoded
// network lives on a fresh graph; to restore a checkpoint into an
// existing network, decode then Set.
func (e *mlp) GobDecode(in []byte) error {
	buf := bytes.NewReader(in)
	dec := gob.NewDecoder(buf)

	var numInputs int
	err := dec.Decode(&numInputs)
	if err != nil {
		return fmt.Errorf("gobdecode: could not decode number of inputs")
	}

	var numActions int
	err = dec.Decode(&numActions)
	if err != nil {
		return fmt.Errorf("gobdecode: could not decode number of action " +
			"inputs")
	}

	var numOutputs int
	err = dec.Decode(&numOutputs)
	if err != nil {
		return fmt.Errorf("gobdecode: could not decode number of outputs")
	}

	var batchSize int
	err = dec.Decode(&batchSize)
	if err != nil {
		return fmt.Errorf("gobdecode: could not decode batch size")
	}

	var hiddenSizes []int
	err = dec.Decode(&hiddenSizes)
	if err != nil {
		return fmt.Errorf("gobdecode: could not decode hidden sizes")
	}
	hiddenSizes = hiddenSizes[:len(hiddenSizes)-1]

	var biases []bool
	err = dec.Decode(&biases)
	if err != nil {
		return fmt.Errorf("gobdecode: could not decode biases")
	}
	biases = biases[:len(biases)-1]

	var activations []*Activation
	err = dec.Decode(&activations)
	if err != nil {
		return fmt.Errorf("gobdecode: could not decode activations")
	}
	activations = activations[:len(activations)-1]

	// Create a new network of the encoded architecture
	g := G.NewGraph()
	var newNet NeuralNet
	if numActions > 0 {
		newNet, err = NewCriticMLP(numInputs, numActions, batchSize, g,
			hiddenSizes, biases, G.Zeroes(), activations)
	} else {
		newNet, err = NewActorMLP(numInputs, batchSize, numOutputs, g,
			hiddenSizes, biases, G.Zeroes(), activations)
	}
	if err != nil {
		return fmt.Errorf("gobdecode: could not construct new network: %v",
			err)
	}
	newMLP := newNet.(*mlp)

	// Fill the new network's layers with the encoded weights
	for i := range newMLP.layers {
		err = dec.Decode(newMLP.layers[i].(*fcLayer))
		if err != nil {
			return fmt.Errorf("gobdecode: could not decode layer %v: %v", i,
				err)
		}
	}

	*e = *newMLP
	return nil
}
