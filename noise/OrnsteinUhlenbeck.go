// Package noise implements stochastic processes for exploration in
// continuous action spaces
package noise

import (
	"fmt"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Default Ornstein-Uhlenbeck process parameters
const (
	DefaultMu    float64 = 0.0
	DefaultTheta float64 = 0.15
	DefaultSigma float64 = 0.2
)

// OrnsteinUhlenbeck implements a mean-reverting Ornstein-Uhlenbeck
// process, commonly used to generate temporally correlated exploration
// noise for deterministic policies.
//
// The process is stateful: each call to Sample perturbs the internal
// state and returns it. Given a fixed seed, the sequence of samples is
// reproducible.
type OrnsteinUhlenbeck struct {
	mu     []float64
	theta  float64
	sigma  float64
	state  *mat.VecDense
	normal distuv.Normal
}

// New returns a new OrnsteinUhlenbeck process over vectors of the
// given size with default parameters
func New(size int, seed uint64) *OrnsteinUhlenbeck {
	ou, err := NewWithParams(size, DefaultMu, DefaultTheta, DefaultSigma,
		seed)
	if err != nil {
		// Defaults are always legal for a positive size
		panic(fmt.Sprintf("new: %v", err))
	}
	return ou
}

// NewWithParams returns a new OrnsteinUhlenbeck process over vectors
// of the given size. The scalar mu is broadcast to every dimension of
// the process mean. The theta parameter controls the strength of mean
// reversion and sigma scales the Gaussian increments.
func NewWithParams(size int, mu, theta, sigma float64,
	seed uint64) (*OrnsteinUhlenbeck, error) {
	if size < 1 {
		return nil, fmt.Errorf("newwithparams: size must be positive "+
			"\n\thave(%v)", size)
	}
	if sigma < 0 {
		return nil, fmt.Errorf("newwithparams: sigma must be non-negative "+
			"\n\thave(%v)", sigma)
	}

	muVec := make([]float64, size)
	for i := range muVec {
		muVec[i] = mu
	}

	source := rand.NewSource(seed)
	normal := distuv.Normal{Mu: 0.0, Sigma: 1.0, Src: source}

	ou := &OrnsteinUhlenbeck{
		mu:     muVec,
		theta:  theta,
		sigma:  sigma,
		state:  mat.NewVecDense(size, nil),
		normal: normal,
	}
	ou.Reset()

	return ou, nil
}

// Size returns the dimensionality of the process
func (o *OrnsteinUhlenbeck) Size() int {
	return o.state.Len()
}

// Reset sets the internal state of the process back to its mean
func (o *OrnsteinUhlenbeck) Reset() {
	for i := 0; i < o.state.Len(); i++ {
		o.state.SetVec(i, o.mu[i])
	}
}

// State returns the current internal state of the process without
// perturbing it
func (o *OrnsteinUhlenbeck) State() mat.Vector {
	out := mat.NewVecDense(o.state.Len(), nil)
	out.CopyVec(o.state)
	return out
}

// Sample perturbs the internal state of the process by
//
//	state <- state + theta*(mu - state) + sigma*N(0, 1)
//
// and returns a copy of the new state
func (o *OrnsteinUhlenbeck) Sample() *mat.VecDense {
	for i := 0; i < o.state.Len(); i++ {
		x := o.state.AtVec(i)
		dx := o.theta*(o.mu[i]-x) + o.sigma*o.normal.Rand()
		o.state.SetVec(i, x+dx)
	}

	out := mat.NewVecDense(o.state.Len(), nil)
	out.CopyVec(o.state)
	return out
}
