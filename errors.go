package fuzzyfs

import (
	"errors"
	"fmt"
)

// ErrNoMatch is the resolver's not-found signal: some segment of the
// requested path has no case-insensitive match in its parent directory.
var ErrNoMatch = errors.New("no case-insensitive match")

// InconsistencyError reports that the resolver produced a corrected path
// and the immediate retry still failed with not-found: the entry was
// removed between resolution and retry, or the resolver is defective.
// Either way it is not an ordinary miss, and it is surfaced as its own
// type so operators can tell transient races from genuine misses.
//
// InconsistencyError deliberately does not unwrap to the underlying
// not-found error, so it never classifies as not-found.
type InconsistencyError struct {
	Path     string // path as the client requested it
	Resolved string // spelling the resolver claimed to exist
	Err      error  // the retry's failure
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("resolved path disappeared: %q (requested %q): %v", e.Resolved, e.Path, e.Err)
}
