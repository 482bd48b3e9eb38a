package filesystem

import "strings"

// CurrentDir is the host-relative spelling of the overlay root. The
// server chdirs into the root before serving, so every normalized path
// is relative to it.
const CurrentDir = "."

// Normalize converts a kernel-supplied absolute path into the
// host-relative form used everywhere below the FUSE layer. The mount
// root "/" maps to CurrentDir; any other path loses exactly one
// leading slash.
func Normalize(path string) string {
	if path == "/" {
		return CurrentDir
	}
	return strings.TrimPrefix(path, "/")
}

// SplitPath breaks a normalized path into its segments. CurrentDir and
// the empty string have no segments; repeated separators do not produce
// empty segments.
func SplitPath(name string) []string {
	if name == "" || name == CurrentDir {
		return nil
	}
	parts := strings.Split(name, "/")
	segs := parts[:0]
	for _, p := range parts {
		if p != "" {
			segs = append(segs, p)
		}
	}
	return segs
}
