package schema

import (
	"fmt"
	"sort"
)

// Build identifies one client build line, e.g. "0,12,8,0" as it appears in
// Metadata.ClientVersionFromExe.
type Build string

// ErrVersionUnknown is returned when a replay's build has no matching
// schema registered (spec §7: fatal at container/schema resolution).
type ErrVersionUnknown struct {
	Build Build
}

func (e *ErrVersionUnknown) Error() string {
	return fmt.Sprintf("schema: no registered entity tables for build %q", e.Build)
}

// Registry holds the per-build EntityType tables. Builds are added once at
// load time and never mutated afterward, so lookups require no locking.
type Registry struct {
	builds map[Build]*EntityTypeTable
}

// NewRegistry returns an empty registry; use Register to populate it.
func NewRegistry() *Registry {
	return &Registry{builds: make(map[Build]*EntityTypeTable)}
}

// Register attaches a build's entity tables, as produced by Load.
func (r *Registry) Register(build Build, types *EntityTypeTable) {
	r.builds[build] = types
}

// ForBuild returns the entity-type table for a build, or ErrVersionUnknown
// if no schema was registered for it.
func (r *Registry) ForBuild(build Build) (*EntityTypeTable, error) {
	types, ok := r.builds[build]
	if !ok {
		return nil, &ErrVersionUnknown{Build: build}
	}
	return types, nil
}

// EntityByName looks up one entity type within a build's table.
func (r *Registry) EntityByName(build Build, name string) (*EntityType, error) {
	types, err := r.ForBuild(build)
	if err != nil {
		return nil, err
	}
	et, ok := types.ByName(name)
	if !ok {
		return nil, &ErrUnknownType{Name: name}
	}
	return et, nil
}

// Builds lists every registered build, sorted for deterministic output.
func (r *Registry) Builds() []Build {
	out := make([]Build, 0, len(r.builds))
	for b := range r.builds {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// TypeNames returns a build's entity type names in declaration order.
// EntityCreate packets carry a TypeID that indexes into this list — the
// wire format addresses entity types by position, never by name, the same
// convention methods and properties use (spec §4.2). That position is
// whatever order Load's caller supplied the EntityType documents in; this
// registry has no independent knowledge of the game's own type-ID table,
// so it is the caller's responsibility to supply documents in that order
// (see DESIGN.md's Open Question entry for this).
func (r *Registry) TypeNames(build Build) ([]string, error) {
	types, err := r.ForBuild(build)
	if err != nil {
		return nil, err
	}
	return types.Names(), nil
}
