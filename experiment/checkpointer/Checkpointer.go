// Package checkpointer implements saving agents at intervals during an
// experiment
package checkpointer

import (
	ts "github.com/samuelfneumann/goddpg/timestep"
)

// Saver is an object that can save its model to a path. Agents that
// checkpoint their networks to a directory of files, such as
// ddpg.DDPG, implement this interface with a directory path.
type Saver interface {
	Save(path string) error
}

// Checkpointer checkpoints/saves Savers based on timestep.TimeSteps
type Checkpointer interface {
	Checkpoint(ts.TimeStep) error
}
