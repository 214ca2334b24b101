package checkpointer

import (
	"fmt"
	"time"
)

// PathTimer returns a function which will append to a path the number
// of nanoseconds since January 1, 1970.
func PathTimer(name, extension string) func() string {
	return func() string {
		return fmt.Sprintf("%v-%v%v", name, time.Now().UnixNano(),
			extension)
	}
}
