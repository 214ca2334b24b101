package checkpointer

import "fmt"

// pathEnumerator enumerates checkpoint paths
type pathEnumerator struct {
	i         int
	name      string
	extension string
}

// path returns the next consecutive enumerated path
func (p *pathEnumerator) path() string {
	p.i++
	return fmt.Sprintf("%v%v%v", p.name, p.i, p.extension)
}

// PathEnumerator returns a function which will return paths with a
// counter integer suffix. Each time the returned function is called,
// the counter suffix will be one higher than on the previous call. The
// name parameter is the full path prefix, while the extension
// parameter determines an optional file extension; use the empty
// string for checkpoints saved as directories.
func PathEnumerator(start int, name, extension string) func() string {
	enum := pathEnumerator{i: start, name: name, extension: extension}

	return enum.path
}
