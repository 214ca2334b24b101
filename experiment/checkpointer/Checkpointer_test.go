package checkpointer

import (
	"testing"

	ts "github.com/samuelfneumann/goddpg/timestep"
)

// mockSaver records the paths it was asked to save to
type mockSaver struct {
	paths []string
}

func (m *mockSaver) Save(path string) error {
	m.paths = append(m.paths, path)
	return nil
}

// TestNStep ensures that an nStep checkpointer saves only on timesteps
// divisible by its interval
func TestNStep(t *testing.T) {
	saver := &mockSaver{}
	checkpointer := NewNStep(2, saver, PathEnumerator(0, "ckpt", ""))

	for i := 1; i <= 5; i++ {
		step := ts.New(ts.Mid, 0.0, nil, i)
		if err := checkpointer.Checkpoint(step); err != nil {
			t.Fatalf("could not checkpoint at step %v: %v", i, err)
		}
	}

	expected := []string{"ckpt1", "ckpt2"}
	if len(saver.paths) != len(expected) {
		t.Fatalf("incorrect number of checkpoints: expected %v, received "+
			"%v", len(expected), len(saver.paths))
	}
	for i := range expected {
		if saver.paths[i] != expected[i] {
			t.Errorf("incorrect checkpoint path at index %v: expected %v, "+
				"received %v", i, expected[i], saver.paths[i])
		}
	}
}

// TestPathEnumerator ensures that enumerated paths carry consecutive
// counter suffixes
func TestPathEnumerator(t *testing.T) {
	next := PathEnumerator(3, "dir/agent", ".bin")

	expected := []string{"dir/agent4.bin", "dir/agent5.bin", "dir/agent6.bin"}
	for i := range expected {
		if path := next(); path != expected[i] {
			t.Errorf("incorrect path at call %v: expected %v, received %v",
				i, expected[i], path)
		}
	}
}
