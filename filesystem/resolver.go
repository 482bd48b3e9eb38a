package filesystem

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/brettbedarf/fuzzyfs"
	"github.com/brettbedarf/fuzzyfs/internal/metrics"
	"github.com/brettbedarf/fuzzyfs/internal/util"
)

// Resolver corrects the case of a path against what the host actually
// contains. Segments are fixed left to right: a segment that lstats
// cleanly is kept as spelled, otherwise the parent directory is listed
// once and the first case-insensitive match in the host's enumeration
// order replaces it. Resolution is all-or-nothing; a segment with no
// match fails the whole path.
type Resolver struct {
	host   fuzzyfs.Host
	met    *metrics.Metrics
	logger zerolog.Logger
}

func NewResolver(host fuzzyfs.Host, met *metrics.Metrics) *Resolver {
	if met == nil {
		met = metrics.New(nil)
	}
	return &Resolver{
		host:   host,
		met:    met,
		logger: util.GetLogger("Resolver"),
	}
}

// Resolve returns the host's spelling of name, a normalized path. The
// root resolves to itself. When no case-insensitive match exists for
// some segment the returned error wraps fuzzyfs.ErrNoMatch.
func (r *Resolver) Resolve(name string) (string, error) {
	segs := SplitPath(name)
	if len(segs) == 0 {
		return CurrentDir, nil
	}

	resolved := make([]string, 0, len(segs))
	for i, seg := range segs {
		resolved = append(resolved, seg)
		if _, err := r.host.Lstat(strings.Join(resolved, "/")); err == nil {
			continue
		}

		parent := CurrentDir
		if i > 0 {
			parent = strings.Join(resolved[:i], "/")
		}
		names, err := r.host.ListNames(parent)
		if err != nil {
			r.met.ResolutionMisses.Inc()
			return "", fmt.Errorf("resolving %q at %q: %w", name, seg, fuzzyfs.ErrNoMatch)
		}
		match, ok := firstFold(names, seg)
		if !ok {
			r.met.ResolutionMisses.Inc()
			return "", fmt.Errorf("resolving %q at %q: %w", name, seg, fuzzyfs.ErrNoMatch)
		}

		r.logger.Debug().Str("from", seg).Str("to", match).Str("path", name).Msg("Corrected path segment")
		r.met.SegmentCorrections.Inc()
		resolved[i] = match
	}

	return strings.Join(resolved, "/"), nil
}

// firstFold returns the first name equal to seg under Unicode case
// folding, preserving the order names were enumerated in.
func firstFold(names []string, seg string) (string, bool) {
	for _, n := range names {
		if strings.EqualFold(n, seg) {
			return n, true
		}
	}
	return "", false
}
