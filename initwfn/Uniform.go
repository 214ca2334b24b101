package initwfn

import (
	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// UniformConfig implements a configuration of a weight initializer
// that draws weights from a uniform distribution
type UniformConfig struct {
	Low, High float64
}

// NewUniform returns a new uniform weight initializer
func NewUniform(low, high float64) (*InitWFn, error) {
	config := UniformConfig{
		Low:  low,
		High: high,
	}

	return newInitWFn(config)
}

// Type returns the type of initialization algorithm described by
// the configuration.
func (u UniformConfig) Type() Type {
	return Uniform
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn
func (u UniformConfig) Create() G.InitWFn {
	return G.Uniform(u.Low, u.High)
}

// CreateSeeded returns the weight initialization algorithm as a
// Gorgonia InitWFn drawing float64 weights uniformly from [Low, High),
// using a source seeded with seed.
func (u UniformConfig) CreateSeeded(seed uint64) G.InitWFn {
	dist := distuv.Uniform{Min: u.Low, Max: u.High,
		Src: rand.NewSource(seed)}

	return func(dt tensor.Dtype, s ...int) interface{} {
		data := make([]float64, tensor.Shape(s).TotalSize())
		for i := range data {
			data[i] = dist.Rand()
		}
		return data
	}
}
