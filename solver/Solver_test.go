package solver

import (
	"encoding/json"
	"testing"
)

// TestSolverJSON ensures that a solver can be marshalled to JSON and
// back without losing its type or hyperparameters
func TestSolverJSON(t *testing.T) {
	solver, err := NewDefaultAdam(1e-3, 32)
	if err != nil {
		t.Fatalf("could not create solver: %v", err)
	}

	data, err := json.Marshal(solver)
	if err != nil {
		t.Fatalf("could not marshal solver: %v", err)
	}

	loaded := new(Solver)
	if err := json.Unmarshal(data, loaded); err != nil {
		t.Fatalf("could not unmarshal solver: %v", err)
	}

	if loaded.Type != Adam {
		t.Errorf("incorrect solver type: expected %v, received %v", Adam,
			loaded.Type)
	}
	if loaded.Solver == nil {
		t.Error("unmarshalled solver holds no Gorgonia solver")
	}

	config, ok := loaded.Config.(*AdamConfig)
	if !ok {
		t.Fatalf("incorrect config type: %T", loaded.Config)
	}
	if config.StepSize != 1e-3 {
		t.Errorf("incorrect step size: expected %v, received %v", 1e-3,
			config.StepSize)
	}
	if config.Batch != 32 {
		t.Errorf("incorrect batch size: expected %v, received %v", 32,
			config.Batch)
	}
}

// TestInvalidSolverType ensures that a solver cannot be constructed
// with a configuration that does not describe its type
func TestInvalidSolverType(t *testing.T) {
	config := AdamConfig{StepSize: 1e-3, Batch: 1}
	if _, err := newSolver(Vanilla, config); err == nil {
		t.Error("expected an error for a mismatched solver type")
	}
}
