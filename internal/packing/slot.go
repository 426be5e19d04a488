package packing

import "github.com/vk/bufcompose/internal/decl"

const (
	// SlotCapacity is the number of atoms one slot can hold.
	SlotCapacity = 4
	// AtomBytes is the byte size of one atom.
	AtomBytes = 4
)

// Slot is one packing bin.
type Slot struct {
	Occupied int
	Members  []decl.Field
}

// Remaining returns the free atoms left in the slot. A slot opened for a
// field larger than SlotCapacity holds only that field and has no room left.
func (s *Slot) Remaining() int {
	return max(SlotCapacity-s.Occupied, 0)
}

// CanFit reports whether a field of the given size fits into the slot.
func (s *Slot) CanFit(size int) bool {
	return s.Remaining() >= size
}

func (s *Slot) fit(f decl.Field) {
	s.Occupied += f.Size
	s.Members = append(s.Members, f)
}

// Declarations returns the raw declarations of the slot in assignment order.
func (s *Slot) Declarations() []string {
	out := make([]string, len(s.Members))
	for i, m := range s.Members {
		out[i] = m.Raw
	}
	return out
}
