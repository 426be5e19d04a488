package registry

import (
	"log/slog"
	"sync"

	"cogentcore.org/core/base/ordmap"
	"github.com/vk/bufcompose/internal/aggregate"
	"github.com/vk/bufcompose/internal/packing"
)

const (
	// DefaultSystem is created with every registry.
	DefaultSystem = "Default System"
	// DefaultMember is the roster entry of DefaultSystem.
	DefaultMember = "DefaultId"
)

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// WithPacking sets the packing options used by every aggregate.
func WithPacking(opts ...packing.Option) Option {
	return func(r *Registry) {
		r.packing = opts
	}
}

// WithNameSink publishes the list of system names to sink whenever it may
// have changed, starting with the initial list.
func WithNameSink(sink NameSink) Option {
	return func(r *Registry) {
		r.sink = sink
	}
}

// Registry holds all aggregates by system name. It is safe for concurrent use.
type Registry struct {
	logger  *slog.Logger
	packing []packing.Option
	sink    NameSink

	mu      sync.RWMutex
	systems *ordmap.Map[string, *aggregate.Aggregate]
	// members maps a roster id to its system.
	members map[string]string
	// owners maps a contributor id to the system it contributes to.
	owners map[string]string

	qmu      sync.Mutex
	queue    []Event
	draining bool
	subs     []subscription
	nextSub  int
}

// New creates a registry holding DefaultSystem.
func New(opts ...Option) *Registry {
	r := &Registry{
		logger:  slog.Default(),
		systems: ordmap.New[string, *aggregate.Aggregate](),
		members: make(map[string]string),
		owners:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.systems.Add(DefaultSystem, aggregate.New(DefaultSystem, DefaultMember, r.packing...))
	r.members[DefaultMember] = DefaultSystem
	r.publishNames()
	return r
}

// Add declares that member belongs to system, creating the system if it is
// new. A member belongs to one system at a time; adding it elsewhere releases
// it from its previous system first.
func (r *Registry) Add(system, member string) {
	r.mu.Lock()
	var events []Event
	if prev, ok := r.members[member]; ok && prev != system {
		events = append(events, r.release(prev, member)...)
	}
	if agg, ok := r.systems.ValueByKeyTry(system); ok {
		agg.AddMember(member)
		r.logger.Debug("Member joined system.", "system", system, "member", member)
	} else {
		r.systems.Add(system, aggregate.New(system, member, r.packing...))
		r.logger.Debug("System created.", "system", system, "member", member)
	}
	r.members[member] = system
	events = append(events, Event{Kind: Structural, System: system})
	r.mu.Unlock()

	r.publishNames()
	r.emit(events...)
}

// Release removes member from the roster of system. When the roster becomes
// empty the system is removed, unless it is DefaultSystem. It reports
// whether the member was on the roster.
func (r *Registry) Release(system, member string) bool {
	r.mu.Lock()
	agg, ok := r.systems.ValueByKeyTry(system)
	if !ok || !agg.HasMember(member) {
		r.mu.Unlock()
		return false
	}
	events := r.release(system, member)
	r.mu.Unlock()

	r.publishNames()
	r.emit(events...)
	return true
}

// release must be called with mu held.
func (r *Registry) release(system, member string) []Event {
	agg, ok := r.systems.ValueByKeyTry(system)
	if !ok {
		return nil
	}
	agg.RemoveMember(member)
	delete(r.members, member)
	r.logger.Debug("Member left system.", "system", system, "member", member)
	if agg.IsEmpty() && system != DefaultSystem {
		r.drop(system)
	}
	return []Event{{Kind: Structural, System: system}}
}

// Remove deletes the entry holding exactly agg. It reports whether agg was
// found.
func (r *Registry) Remove(agg *aggregate.Aggregate) bool {
	r.mu.Lock()
	name, ok := r.nameOf(agg)
	if !ok {
		r.mu.Unlock()
		return false
	}
	r.drop(name)
	r.mu.Unlock()

	r.publishNames()
	r.emit(Event{Kind: Structural, System: name})
	return true
}

// drop must be called with mu held.
func (r *Registry) drop(system string) {
	r.systems.DeleteKey(system)
	for id, s := range r.members {
		if s == system {
			delete(r.members, id)
		}
	}
	for id, s := range r.owners {
		if s == system {
			delete(r.owners, id)
		}
	}
	r.logger.Debug("System removed.", "system", system)
}

// Get returns the aggregate of a system.
func (r *Registry) Get(system string) (*aggregate.Aggregate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.systems.ValueByKeyTry(system)
}

// Snapshot returns a copy of a system's state.
func (r *Registry) Snapshot(system string) (aggregate.Snapshot, bool) {
	agg, ok := r.Get(system)
	if !ok {
		return aggregate.Snapshot{}, false
	}
	return agg.Snapshot(), true
}

// NameOf returns the name under which agg is registered.
func (r *Registry) NameOf(agg *aggregate.Aggregate) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.nameOf(agg)
}

func (r *Registry) nameOf(agg *aggregate.Aggregate) (string, bool) {
	for _, kv := range r.systems.Order {
		if kv.Value == agg {
			return kv.Key, true
		}
	}
	return "", false
}

// ByMember returns the aggregate whose roster holds member.
func (r *Registry) ByMember(member string) (*aggregate.Aggregate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(r.members, member)
}

// ByContributor returns the aggregate the contributor currently contributes
// to.
func (r *Registry) ByContributor(id string) (*aggregate.Aggregate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(r.owners, id)
}

func (r *Registry) lookup(index map[string]string, id string) (*aggregate.Aggregate, bool) {
	system, ok := index[id]
	if !ok {
		return nil, false
	}
	return r.systems.ValueByKeyTry(system)
}

// Names returns the system names in creation order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.systems.Keys()
}

// SetDeclarations replaces the declarations of contributor id in system.
// Unknown systems are ignored.
func (r *Registry) SetDeclarations(system, id string, decls []string) bool {
	return r.set(system, id, "declarations", func(agg *aggregate.Aggregate) bool {
		agg.SetDeclarations(id, decls)
		return true
	})
}

// SetDefines replaces the defines of contributor id in system. Unknown
// systems are ignored.
func (r *Registry) SetDefines(system, id string, defines []string) bool {
	return r.set(system, id, "defines", func(agg *aggregate.Aggregate) bool {
		agg.SetDefines(id, defines)
		return true
	})
}

// SetEmitterSize sets the element count of contributor id in system. Unknown
// systems and counts below one are ignored.
func (r *Registry) SetEmitterSize(system, id string, n int) bool {
	return r.set(system, id, "emitter size", func(agg *aggregate.Aggregate) bool {
		return agg.SetEmitterSize(id, n)
	})
}

// RemoveDeclarations drops the declarations of contributor id, wherever they
// are. Unknown ids are ignored.
func (r *Registry) RemoveDeclarations(id string) bool {
	return r.remove(id, "declarations", (*aggregate.Aggregate).RemoveDeclarations)
}

// RemoveDefines drops the defines of contributor id. Unknown ids are ignored.
func (r *Registry) RemoveDefines(id string) bool {
	return r.remove(id, "defines", (*aggregate.Aggregate).RemoveDefines)
}

// RemoveEmitterSize drops the element count of contributor id. Unknown ids
// are ignored.
func (r *Registry) RemoveEmitterSize(id string) bool {
	return r.remove(id, "emitter size", (*aggregate.Aggregate).RemoveEmitterSize)
}

func (r *Registry) set(system, id, what string, apply func(*aggregate.Aggregate) bool) bool {
	r.mu.Lock()
	agg, ok := r.systems.ValueByKeyTry(system)
	if !ok {
		r.mu.Unlock()
		r.logger.Debug("Ignoring update for unknown system.", "system", system, "contributor", id, "kind", what)
		return false
	}

	var events []Event
	if prev, bound := r.owners[id]; bound && prev != system {
		if old, ok := r.systems.ValueByKeyTry(prev); ok {
			old.RemoveDeclarations(id)
			old.RemoveDefines(id)
			old.RemoveEmitterSize(id)
			events = append(events, Event{Kind: Content, System: prev})
			r.logger.Debug("Contributor moved between systems.", "from", prev, "to", system, "contributor", id)
		}
		delete(r.owners, id)
	}

	if !apply(agg) {
		r.mu.Unlock()
		r.emit(events...)
		return false
	}
	r.owners[id] = system
	r.mu.Unlock()

	r.logger.Debug("Contributor updated.", "system", system, "contributor", id, "kind", what)
	r.emit(append(events, Event{Kind: Content, System: system})...)
	return true
}

func (r *Registry) remove(id, what string, apply func(*aggregate.Aggregate, string) bool) bool {
	r.mu.Lock()
	system, ok := r.owners[id]
	if !ok {
		r.mu.Unlock()
		return false
	}
	agg, ok := r.systems.ValueByKeyTry(system)
	if !ok {
		delete(r.owners, id)
		r.mu.Unlock()
		return false
	}
	removed := apply(agg, id)
	if !agg.HasContributor(id) {
		delete(r.owners, id)
	}
	r.mu.Unlock()

	if !removed {
		return false
	}
	r.logger.Debug("Contributor content removed.", "system", system, "contributor", id, "kind", what)
	r.emit(Event{Kind: Content, System: system})
	return true
}

func (r *Registry) publishNames() {
	if r.sink == nil {
		return
	}
	r.sink.PublishNames(r.Names())
}
