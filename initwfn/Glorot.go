package initwfn

import (
	"math"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// fans returns the fan-in and fan-out of a float64 weight tensor
// shape. Only the vector and matrix shapes used by fully connected
// layers are supported.
func fans(shape ...int) (fanIn, fanOut int) {
	switch len(shape) {
	case 0:
		return 1, 1
	case 1:
		return shape[0], shape[0]
	default:
		return shape[0], shape[1]
	}
}

// GlorotUConfig implements a configuration of the Glorot Uniform
// initialization algorithm.
type GlorotUConfig struct {
	Gain float64
}

// NewGlorotU returns a new Glorot Uniform weight initializer
func NewGlorotU(gain float64) (*InitWFn, error) {
	config := GlorotUConfig{
		Gain: gain,
	}

	return newInitWFn(config)
}

// Type returns the type of initialization algorithm described by
// the configuration.
func (g GlorotUConfig) Type() Type {
	return GlorotU
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn
func (g GlorotUConfig) Create() G.InitWFn {
	return G.GlorotU(g.Gain)
}

// CreateSeeded returns the weight initialization algorithm as a
// Gorgonia InitWFn drawing float64 weights uniformly from
// [-limit, limit] with limit = gain * sqrt(6 / (fanIn + fanOut)),
// using a source seeded with seed.
func (g GlorotUConfig) CreateSeeded(seed uint64) G.InitWFn {
	dist := distuv.Uniform{Min: -1.0, Max: 1.0, Src: rand.NewSource(seed)}

	return func(dt tensor.Dtype, s ...int) interface{} {
		fanIn, fanOut := fans(s...)
		limit := g.Gain * math.Sqrt(6.0/float64(fanIn+fanOut))

		data := make([]float64, tensor.Shape(s).TotalSize())
		for i := range data {
			data[i] = dist.Rand() * limit
		}
		return data
	}
}

// GlorotNConfig implements a configuration of the Glorot Normal
// initialization algorithm.
type GlorotNConfig struct {
	Gain float64
}

// NewGlorotN returns a new Glorot Normal weight initializer.
func NewGlorotN(gain float64) (*InitWFn, error) {
	config := GlorotNConfig{
		Gain: gain,
	}

	return newInitWFn(config)
}

// Type returns the type of initialization algorithm described by the
// configuration.
func (g GlorotNConfig) Type() Type {
	return GlorotN
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn
func (g GlorotNConfig) Create() G.InitWFn {
	return G.GlorotN(g.Gain)
}

// CreateSeeded returns the weight initialization algorithm as a
// Gorgonia InitWFn drawing float64 weights from a normal distribution
// with standard deviation gain * sqrt(2 / (fanIn + fanOut)), using a
// source seeded with seed.
func (g GlorotNConfig) CreateSeeded(seed uint64) G.InitWFn {
	dist := distuv.Normal{Mu: 0.0, Sigma: 1.0, Src: rand.NewSource(seed)}

	return func(dt tensor.Dtype, s ...int) interface{} {
		fanIn, fanOut := fans(s...)
		stdDev := g.Gain * math.Sqrt(2.0/float64(fanIn+fanOut))

		data := make([]float64, tensor.Shape(s).TotalSize())
		for i := range data {
			data[i] = dist.Rand() * stdDev
		}
		return data
	}
}
