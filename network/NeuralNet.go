// Package network implements neural network function approximators
// using Gorgonia computational graphs
package network

import (
	G "gorgonia.org/gorgonia"
)

// NeuralNet implements a neural network on a Gorgonia computational
// graph. A NeuralNet only describes the forward pass; gradients and
// weight updates are handled by the caller through Learnables, Model,
// and a Gorgonia Solver.
type NeuralNet interface {
	Graph() *G.ExprGraph
	BatchSize() int
	Features() int
	Outputs() int

	// SetInput sets the value of the state input node before the
	// network's graph is run
	SetInput([]float64) error

	// InputNode returns the node of the computational graph holding
	// the network's state input, so that other networks can be built
	// on top of the same input on a shared graph
	InputNode() *G.Node

	// Set sets the weights of the network to equal those of another
	// network with an identical architecture
	Set(NeuralNet) error

	// Polyak blends the weights of the network toward those of another
	// network with an identical architecture:
	//
	//	w_dest <- tau * w_source + (1 - tau) * w_dest
	Polyak(NeuralNet, float64) error

	Learnables() G.Nodes
	Model() []G.ValueGrad

	// Output returns the value of the network's prediction after its
	// graph has been run
	Output() G.Value

	// Prediction returns the node of the computational graph that
	// stores the network's prediction
	Prediction() *G.Node
}

// StateActionNet is a NeuralNet that predicts a value from a
// (state, action) pair, such as an action-value critic
type StateActionNet interface {
	NeuralNet

	// Actions returns the number of action features the network takes
	// as input
	Actions() int

	// SetActions sets the value of the action input node before the
	// network's graph is run
	SetActions([]float64) error
}
