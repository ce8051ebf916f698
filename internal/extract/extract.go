// Package extract defines the extractor capability and the suffix registry
// the traversal consults for every regular file.
package extract

import (
	"context"
	"errors"
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"
)

// Block is one normalized metadata fragment, one pre-formatted line per
// element, without trailing newlines. The first and last lines are the
// wrapper pair. An empty block means there is nothing to emit.
type Block []string

// Empty reports whether there is nothing to emit.
func (b Block) Empty() bool { return len(b) == 0 }

// Func extracts a block for path. depth is the nesting depth the block
// lines will be written at.
type Func func(ctx context.Context, path string, depth int) Block

// Extractor is implemented by every metadata extractor.
type Extractor interface {
	// Name identifies the extractor in diagnostics and the catalog.
	Name() string
	// Expose reports the suffixes handled (leading dot, case-sensitive)
	// and the callback producing blocks for them.
	Expose() ([]string, Func)
}

// ErrDuplicateSuffix is returned when two extractors claim the same suffix.
var ErrDuplicateSuffix = errors.New("suffix already registered")

type entry struct {
	owner string
	fn    Func
}

// Registry maps suffixes to extractors. It is filled once before traversal
// and only read afterwards.
type Registry struct {
	entries  map[string]entry
	override bool
	log      log.FieldLogger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithOverride makes later registrations replace earlier ones for the same
// suffix instead of failing. Each replacement is logged.
func WithOverride(override bool) RegistryOption {
	return func(r *Registry) { r.override = override }
}

// WithRegistryLogger sets the logger used for override warnings.
func WithRegistryLogger(logger log.FieldLogger) RegistryOption {
	return func(r *Registry) { r.log = logger }
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		entries: make(map[string]entry),
		log:     log.StandardLogger(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Register inserts every suffix x exposes. Unless overriding is enabled a
// suffix that is already taken fails the whole registration and nothing of
// x is inserted.
func (r *Registry) Register(x Extractor) error {
	suffixes, fn := x.Expose()
	if fn == nil {
		return fmt.Errorf("extractor %s exposes no callback", x.Name())
	}
	if !r.override {
		for _, s := range suffixes {
			if prev, ok := r.entries[s]; ok && prev.owner != x.Name() {
				return fmt.Errorf("register %s: %w: %q is owned by %s", x.Name(), ErrDuplicateSuffix, s, prev.owner)
			}
		}
	}
	for _, s := range suffixes {
		if prev, ok := r.entries[s]; ok && prev.owner != x.Name() {
			r.log.Warnf("(registry): suffix %q moved from %s to %s", s, prev.owner, x.Name())
		}
		r.entries[s] = entry{owner: x.Name(), fn: fn}
	}
	return nil
}

// Lookup returns the callback registered for suffix.
func (r *Registry) Lookup(suffix string) (Func, bool) {
	e, ok := r.entries[suffix]
	if !ok {
		return nil, false
	}
	return e.fn, true
}

// Owner returns the name of the extractor handling suffix, or "".
func (r *Registry) Owner(suffix string) string {
	return r.entries[suffix].owner
}

// Suffixes returns every registered suffix, sorted.
func (r *Registry) Suffixes() []string {
	out := make([]string, 0, len(r.entries))
	for s := range r.entries {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered suffixes.
func (r *Registry) Len() int { return len(r.entries) }
