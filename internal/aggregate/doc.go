// Package aggregate holds the merged state of one named system: the roster
// of members that declared it, and per-contributor declarations, defines and
// element counts. Every mutation recomputes the derived values (packed
// layout, define union, element count and offsets), so reads are always
// consistent with the last write.
//
// Contributions are kept in insertion order. Replacing an existing entry keeps
// its position; removing and re-adding one moves it to the end. Element
// offsets follow that order.
package aggregate
