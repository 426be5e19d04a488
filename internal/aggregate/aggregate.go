package aggregate

import (
	"slices"
	"sync"

	"cogentcore.org/core/base/ordmap"
	"github.com/vk/bufcompose/internal/packing"
)

// Range is the slice of the element space owned by one contributor.
type Range struct {
	Contributor string
	Offset      int
	Size        int
}

// Aggregate is the composed state of one named system. It is safe for
// concurrent use.
type Aggregate struct {
	name string
	opts []packing.Option

	mu           sync.RWMutex
	members      []string
	declarations *ordmap.Map[string, []string]
	defines      *ordmap.Map[string, []string]
	emitterSizes *ordmap.Map[string, int]

	layout       *packing.Result
	definesUnion []string
	elementCount int
	ranges       []Range
}

// New creates an aggregate with one initial member.
func New(name, member string, opts ...packing.Option) *Aggregate {
	a := &Aggregate{
		name:         name,
		opts:         opts,
		declarations: ordmap.New[string, []string](),
		defines:      ordmap.New[string, []string](),
		emitterSizes: ordmap.New[string, int](),
		layout:       packing.Pack(nil, opts...),
	}
	if member != "" {
		a.members = append(a.members, member)
	}
	return a
}

// Name returns the system name.
func (a *Aggregate) Name() string {
	return a.name
}

// AddMember adds a member to the roster. Adding a present member is a no-op.
func (a *Aggregate) AddMember(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !slices.Contains(a.members, id) {
		a.members = append(a.members, id)
	}
}

// RemoveMember removes a member from the roster and reports whether it was
// present.
func (a *Aggregate) RemoveMember(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	i := slices.Index(a.members, id)
	if i < 0 {
		return false
	}
	a.members = slices.Delete(a.members, i, i+1)
	return true
}

// HasMember reports whether id is on the roster.
func (a *Aggregate) HasMember(id string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Contains(a.members, id)
}

// Members returns the roster in join order.
func (a *Aggregate) Members() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.members)
}

// IsEmpty reports whether the roster is empty.
func (a *Aggregate) IsEmpty() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.members) == 0
}

// SetDeclarations replaces the declarations of a contributor and repacks.
func (a *Aggregate) SetDeclarations(id string, decls []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.declarations.Add(id, slices.Clone(decls))
	a.updateLayout()
}

// RemoveDeclarations drops the declarations of a contributor and repacks.
// It reports whether the contributor had declarations.
func (a *Aggregate) RemoveDeclarations(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	ok := a.declarations.DeleteKey(id)
	a.updateLayout()
	return ok
}

// HasDeclarations reports whether the contributor has declarations set.
func (a *Aggregate) HasDeclarations(id string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.declarations.ValueByKeyTry(id)
	return ok
}

// SetDefines replaces the defines of a contributor.
func (a *Aggregate) SetDefines(id string, defines []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.defines.Add(id, slices.Clone(defines))
	a.updateDefines()
}

// RemoveDefines drops the defines of a contributor and reports whether it had
// any set.
func (a *Aggregate) RemoveDefines(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	ok := a.defines.DeleteKey(id)
	a.updateDefines()
	return ok
}

// DefinesOf returns the defines set by one contributor, or nil.
func (a *Aggregate) DefinesOf(id string) []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.defines.ValueByKey(id))
}

// SetEmitterSize sets the element count of a contributor. Counts below one
// are rejected; the return value reports whether n was accepted.
func (a *Aggregate) SetEmitterSize(id string, n int) bool {
	if n <= 0 {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.emitterSizes.Add(id, n)
	a.updateElementCount()
	return true
}

// RemoveEmitterSize drops the element count of a contributor, if present.
func (a *Aggregate) RemoveEmitterSize(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.emitterSizes.DeleteKey(id) {
		return false
	}
	a.updateElementCount()
	return true
}

// HasContributor reports whether id contributes anything to the aggregate.
func (a *Aggregate) HasContributor(id string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.hasContributor(id)
}

func (a *Aggregate) hasContributor(id string) bool {
	if _, ok := a.declarations.ValueByKeyTry(id); ok {
		return true
	}
	if _, ok := a.defines.ValueByKeyTry(id); ok {
		return true
	}
	_, ok := a.emitterSizes.ValueByKeyTry(id)
	return ok
}

// Contributors returns every contributor id in first-seen order across
// declarations, defines and element counts.
func (a *Aggregate) Contributors() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.contributors()
}

func (a *Aggregate) contributors() []string {
	var ids []string
	for _, keys := range [][]string{a.declarations.Keys(), a.defines.Keys(), a.emitterSizes.Keys()} {
		for _, k := range keys {
			if !slices.Contains(ids, k) {
				ids = append(ids, k)
			}
		}
	}
	return ids
}

// Layout returns the packing result over the merged declarations. The
// result must not be modified.
func (a *Aggregate) Layout() *packing.Result {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.layout
}

// Structure returns the packed declarations joined by spaces.
func (a *Aggregate) Structure() string {
	return a.Layout().Structure()
}

// Stride returns the byte size of one packed record.
func (a *Aggregate) Stride() int {
	return a.Layout().Stride()
}

// Errors returns the rejections of the last repack.
func (a *Aggregate) Errors() []string {
	return a.Layout().Messages()
}

// Defines returns the deduplicated union of all contributors' defines.
func (a *Aggregate) Defines() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.definesUnion)
}

// ElementCount returns the sum of all element counts.
func (a *Aggregate) ElementCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.elementCount
}

// Offset returns the element offset of a contributor. For an unknown id it
// returns the total element count.
func (a *Aggregate) Offset(id string) int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return offsetIn(a.ranges, id, a.elementCount)
}

// Ranges returns the per-contributor element ranges in insertion order.
func (a *Aggregate) Ranges() []Range {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.ranges)
}

func offsetIn(ranges []Range, id string, total int) int {
	for _, r := range ranges {
		if r.Contributor == id {
			return r.Offset
		}
	}
	return total
}

// updateLayout merges declarations in contributor order, drops exact textual
// repeats and repacks. Same-name conflicts are left to the packer, which keeps
// the earliest.
func (a *Aggregate) updateLayout() {
	var merged []string
	seen := make(map[string]struct{})
	for _, decls := range a.declarations.Values() {
		for _, d := range decls {
			if _, ok := seen[d]; ok {
				continue
			}
			seen[d] = struct{}{}
			merged = append(merged, d)
		}
	}
	a.layout = packing.Pack(merged, a.opts...)
}

func (a *Aggregate) updateDefines() {
	var union []string
	seen := make(map[string]struct{})
	for _, defs := range a.defines.Values() {
		for _, d := range defs {
			if _, ok := seen[d]; ok {
				continue
			}
			seen[d] = struct{}{}
			union = append(union, d)
		}
	}
	a.definesUnion = union
}

func (a *Aggregate) updateElementCount() {
	a.ranges = a.ranges[:0]
	total := 0
	for _, kv := range a.emitterSizes.Order {
		a.ranges = append(a.ranges, Range{Contributor: kv.Key, Offset: total, Size: kv.Value})
		total += kv.Value
	}
	a.elementCount = total
}
