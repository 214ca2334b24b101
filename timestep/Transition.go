package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Transition packages together a single environmental transition
// (S, A, R, S', done). Transitions are immutable once constructed:
// consumers such as replay buffers copy the underlying data out rather
// than aliasing it.
type Transition struct {
	State     mat.Vector
	Action    mat.Vector
	Reward    float64
	NextState mat.Vector
	Done      bool
}

// NewTransition creates and returns a new Transition, validating that
// the state and action vectors have the expected lengths.
func NewTransition(state, action mat.Vector, reward float64,
	nextState mat.Vector, done bool, stateSize,
	actionSize int) (Transition, error) {
	if state == nil || action == nil || nextState == nil {
		return Transition{}, fmt.Errorf("newtransition: nil vector")
	}
	if state.Len() != stateSize || nextState.Len() != stateSize {
		return Transition{}, fmt.Errorf("newtransition: invalid state size "+
			"\n\twant(%v)\n\thave(%v, %v)", stateSize, state.Len(),
			nextState.Len())
	}
	if action.Len() != actionSize {
		return Transition{}, fmt.Errorf("newtransition: invalid action size "+
			"\n\twant(%v)\n\thave(%v)", actionSize, action.Len())
	}

	return Transition{
		State:     state,
		Action:    action,
		Reward:    reward,
		NextState: nextState,
		Done:      done,
	}, nil
}

func (t Transition) String() string {
	str := "Transition | Reward: %.2f  |  Done: %v"

	return fmt.Sprintf(str, t.Reward, t.Done)
}
