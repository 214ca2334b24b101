package initwfn

import (
	"math"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// HeUConfig implements a configuration of the He uniform
// initialization algorithm.
type HeUConfig struct {
	Gain float64
}

// NewHeU returns a new He Uniform weight initializer
func NewHeU(gain float64) (*InitWFn, error) {
	config := HeUConfig{
		Gain: gain,
	}

	return newInitWFn(config)
}

// Type returns the type of initialization algorithm described by
// the configuration.
func (h HeUConfig) Type() Type {
	return HeU
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn
func (h HeUConfig) Create() G.InitWFn {
	return G.HeU(h.Gain)
}

// CreateSeeded returns the weight initialization algorithm as a
// Gorgonia InitWFn drawing float64 weights uniformly from
// [-limit, limit] with limit = gain * sqrt(6 / fanIn), using a source
// seeded with seed.
func (h HeUConfig) CreateSeeded(seed uint64) G.InitWFn {
	dist := distuv.Uniform{Min: -1.0, Max: 1.0, Src: rand.NewSource(seed)}

	return func(dt tensor.Dtype, s ...int) interface{} {
		fanIn, _ := fans(s...)
		limit := h.Gain * math.Sqrt(6.0/float64(fanIn))

		data := make([]float64, tensor.Shape(s).TotalSize())
		for i := range data {
			data[i] = dist.Rand() * limit
		}
		return data
	}
}

// HeNConfig implements a configuration of the He normal
// initialization algorithm.
type HeNConfig struct {
	Gain float64
}

// NewHeN returns a new He Normal weight initializer
func NewHeN(gain float64) (*InitWFn, error) {
	config := HeNConfig{
		Gain: gain,
	}

	return newInitWFn(config)
}

// Type returns the type of initialization algorithm described by
// the configuration.
func (h HeNConfig) Type() Type {
	return HeN
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn
func (h HeNConfig) Create() G.InitWFn {
	return G.HeN(h.Gain)
}

// CreateSeeded returns the weight initialization algorithm as a
// Gorgonia InitWFn drawing float64 weights from a normal distribution
// with standard deviation gain * sqrt(2 / fanIn), using a source
// seeded with seed.
func (h HeNConfig) CreateSeeded(seed uint64) G.InitWFn {
	dist := distuv.Normal{Mu: 0.0, Sigma: 1.0, Src: rand.NewSource(seed)}

	return func(dt tensor.Dtype, s ...int) interface{} {
		fanIn, _ := fans(s...)
		stdDev := h.Gain * math.Sqrt(2.0/float64(fanIn))

		data := make([]float64, tensor.Shape(s).TotalSize())
		for i := range data {
			data[i] = dist.Rand() * stdDev
		}
		return data
	}
}
