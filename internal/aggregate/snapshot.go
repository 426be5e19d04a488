package aggregate

import "slices"

// Snapshot is a consistent copy of an aggregate's derived state.
type Snapshot struct {
	Name         string
	Members      []string
	Contributors []string
	Structure    string
	Slots        [][]string
	Stride       int
	ElementCount int
	Defines      []string
	Ranges       []Range
	Errors       []string
}

// Snapshot copies the current state under a single read lock.
func (a *Aggregate) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	slots := make([][]string, len(a.layout.Slots))
	for i, s := range a.layout.Slots {
		slots[i] = s.Declarations()
	}

	return Snapshot{
		Name:         a.name,
		Members:      slices.Clone(a.members),
		Contributors: a.contributors(),
		Structure:    a.layout.Structure(),
		Slots:        slots,
		Stride:       a.layout.Stride(),
		ElementCount: a.elementCount,
		Defines:      slices.Clone(a.definesUnion),
		Ranges:       slices.Clone(a.ranges),
		Errors:       a.layout.Messages(),
	}
}

// Offset returns the element offset of a contributor, or ElementCount when
// the contributor has no element count.
func (s Snapshot) Offset(id string) int {
	return offsetIn(s.Ranges, id, s.ElementCount)
}
