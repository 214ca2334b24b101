package ddpg

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/samuelfneumann/goddpg/network"
)

// Filenames of the network checkpoints stored in a checkpoint
// directory
const (
	ActorCheckpoint  string = "checkpoint_actor.bin"
	CriticCheckpoint string = "checkpoint_critic.bin"
)

// Save writes the weights of the local actor and critic networks to
// the directory dir, creating the directory if needed. Save implements
// the checkpointer.Saver interface.
func (d *DDPG) Save(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("save: could not create checkpoint directory: %v",
			err)
	}

	err := network.SaveNetTo(d.actor, filepath.Join(dir, ActorCheckpoint))
	if err != nil {
		return fmt.Errorf("save: could not save actor: %v", err)
	}

	err = network.SaveNetTo(d.critic, filepath.Join(dir, CriticCheckpoint))
	if err != nil {
		return fmt.Errorf("save: could not save critic: %v", err)
	}

	return nil
}

// Load restores the weights of a checkpoint previously saved in dir.
// The local actor and critic take the checkpointed weights, and the
// behaviour and target networks are set to exact copies of the locals.
func (d *DDPG) Load(dir string) error {
	actorNet, err := network.LoadNet(filepath.Join(dir, ActorCheckpoint))
	if err != nil {
		return fmt.Errorf("load: could not load actor: %v", err)
	}

	criticNet, err := network.LoadNet(filepath.Join(dir, CriticCheckpoint))
	if err != nil {
		return fmt.Errorf("load: could not load critic: %v", err)
	}

	if err := d.actor.Set(actorNet); err != nil {
		return fmt.Errorf("load: could not set actor weights: %v", err)
	}
	if err := d.critic.Set(criticNet); err != nil {
		return fmt.Errorf("load: could not set critic weights: %v", err)
	}

	if err := d.syncDerived(); err != nil {
		return fmt.Errorf("load: %v", err)
	}
	return nil
}
