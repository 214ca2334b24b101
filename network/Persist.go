package network

import (
	"encoding/gob"
	"fmt"
	"os"
)

// SaveNetTo serializes the weights and architecture of a NeuralNet to
// the file at filename, overwriting any existing file.
func SaveNetTo(n NeuralNet, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("savenetto: could not create %v: %v", filename, err)
	}
	defer file.Close()

	m, ok := n.(*mlp)
	if !ok {
		return fmt.Errorf("savenetto: cannot serialize network of type %T", n)
	}

	enc := gob.NewEncoder(file)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("savenetto: could not encode network: %v", err)
	}

	return nil
}

// LoadNet deserializes a NeuralNet from the file at filename. The
// returned network lives on its own fresh graph; restore it into an
// existing network with Set.
func LoadNet(filename string) (NeuralNet, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loadnet: could not open %v: %v", filename,
			err)
	}
	defer file.Close()

	dec := gob.NewDecoder(file)
	net := new(mlp)
	if err := dec.Decode(net); err != nil {
		return nil, fmt.Errorf("loadnet: could not decode network: %v", err)
	}

	return net, nil
}
