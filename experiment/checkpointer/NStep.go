package checkpointer

import ts "github.com/samuelfneumann/goddpg/timestep"

// nStep implements checkpointing every N steps
type nStep struct {
	interval int
	object   Saver // Object to save

	// path returns the string path of the file or directory to save
	// the object in.
	//
	// If each checkpoint should be saved at a separate path with
	// each path having an incremented number as a suffix (e.g.
	// ckpt1, ckpt2, ..., ckptK), then simply use the static function
	// PathEnumerator, which will return a function that will enumerate
	// paths.
	//
	// Otherwise, if each checkpoint should be saved at a separate
	// path, but the path itself does not matter, use the static
	// function PathTimer to generate the required naming function.
	// For example:
	//
	// n := NewNStep(10, object, PathTimer("ckpt", ""))
	path func() string
}

// NewNStep returns a checkpointer that checkpoints every n steps.
func NewNStep(n int, object Saver, path func() string) Checkpointer {
	return &nStep{
		interval: n,
		object:   object,
		path:     path,
	}
}

// Checkpoint checkpoints the Checkpointer's tracked object by calling
// its Save() method
func (n *nStep) Checkpoint(t ts.TimeStep) error {
	if t.Number%n.interval == 0 {
		return n.object.Save(n.path())
	}
	return nil
}
