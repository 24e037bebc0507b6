package food

import "io"

// Sink is a destination for generated artifacts (reports and snapshots).
// Objects are addressed by slash-separated names; Put overwrites.
type Sink interface {
	// Put stores size bytes read from r under name, replacing any previous object.
	Put(name string, r io.Reader, size int64) error

	// Get writes the object stored under name to w.
	Get(name string, w io.Writer) error

	// List returns the names of objects starting with prefix, sorted.
	List(prefix string) ([]string, error)

	// Location describes where an object lives, for user-facing messages.
	Location(name string) string
}
