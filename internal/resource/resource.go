// Package resource implements the ResourceLoader capability the battle
// controller consumes but never owns the lifetime of: a read-only map
// from numeric/string IDs to game-parameter and localization records,
// plus the entity schema bundle for a build (spec §5/§6). Loading these
// from the game's actual resource packages is out of scope (spec §1's
// Non-goals); this package only defines the capability and two wrapper
// implementations callers populate from whatever source they have.
package resource

import (
	"sync"

	"github.com/landaire/wows-replay-go/internal/replaytypes"
	"github.com/landaire/wows-replay-go/internal/schema"
)

// ParamRecord is one entry of the game-parameter database — an opaque,
// implementation-defined record (ship/consumable/shell parameters, ...).
// The core never interprets its contents; it is a pass-through capability
// for downstream analyzers (spec §6).
type ParamRecord map[string]any

// SchemaBundle is the per-build entity-type table a ResourceLoader can
// hand back, so a caller can build a semantic.Decoder without going
// through the schema.Registry directly. It is exactly what schema.Load
// returns, order-preserving for the same reason schema.Registry keeps it:
// EntityCreate's wire TypeID addresses entity types by declaration order.
type SchemaBundle = *schema.EntityTypeTable

// ResourceLoader is the capability the battle controller borrows for its
// lifetime (spec §3's Ownership, §6's external interface). It is
// implemented by Exclusive and Shared, selectable at construction
// (spec §5, mirroring the companion source's compile-time Rc/Arc toggle).
type ResourceLoader interface {
	GameParamByID(id replaytypes.GameParamId) (ParamRecord, bool)
	LocalizedNameFromID(key string) (string, bool)
	SchemaForBuild(build string) (SchemaBundle, bool)
}

// Bundle is the backing data a ResourceLoader serves. Callers populate it
// once at startup (however they source it) and then wrap it with New or
// NewShared.
type Bundle struct {
	Params        map[replaytypes.GameParamId]ParamRecord
	Localizations map[string]string
	Schemas       map[string]SchemaBundle
}

// NewBundle returns an empty, ready-to-populate Bundle.
func NewBundle() *Bundle {
	return &Bundle{
		Params:        make(map[replaytypes.GameParamId]ParamRecord),
		Localizations: make(map[string]string),
		Schemas:       make(map[string]SchemaBundle),
	}
}

// Exclusive serves a Bundle with no synchronization: correct only when
// the Bundle has a single owner and is never mutated concurrently with a
// read (spec §5's single-threaded host case).
type Exclusive struct {
	b *Bundle
}

// NewExclusive returns a ResourceLoader with no internal locking, for a
// single-threaded host that owns b exclusively for the loader's
// lifetime.
func NewExclusive(b *Bundle) *Exclusive {
	return &Exclusive{b: b}
}

func (e *Exclusive) GameParamByID(id replaytypes.GameParamId) (ParamRecord, bool) {
	v, ok := e.b.Params[id]
	return v, ok
}

func (e *Exclusive) LocalizedNameFromID(key string) (string, bool) {
	v, ok := e.b.Localizations[key]
	return v, ok
}

func (e *Exclusive) SchemaForBuild(build string) (SchemaBundle, bool) {
	v, ok := e.b.Schemas[build]
	return v, ok
}

// Shared serves a Bundle behind a RWMutex, safe to hand to multiple
// concurrently-running pipeline instances (spec §5's multi-thread host
// case — the companion source's Arc<RefCell<..>> equivalent, adapted
// since Go's GC already handles the reference counting Rc/Arc exist for;
// what a Go port actually needs is the synchronized-access guarantee).
type Shared struct {
	mu sync.RWMutex
	b  *Bundle
}

// NewShared returns a ResourceLoader safe to share across goroutines.
func NewShared(b *Bundle) *Shared {
	return &Shared{b: b}
}

func (s *Shared) GameParamByID(id replaytypes.GameParamId) (ParamRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.b.Params[id]
	return v, ok
}

func (s *Shared) LocalizedNameFromID(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.b.Localizations[key]
	return v, ok
}

func (s *Shared) SchemaForBuild(build string) (SchemaBundle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.b.Schemas[build]
	return v, ok
}

// Reload atomically replaces the backing Bundle, visible to every holder
// of this shared loader. Exclusive has no equivalent: its caller owns the
// Bundle directly and can just mutate it between replay runs.
func (s *Shared) Reload(b *Bundle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.b = b
}
