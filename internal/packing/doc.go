// Package packing lays out parsed declarations into fixed-capacity slots,
// constant-buffer style: each slot holds SlotCapacity atoms of 4 bytes.
//
// Declarations are deduplicated by name (the first occurrence wins, later
// ones are rejected), invalid types are excluded, and the remaining fields
// are placed one by one into the existing slot with the most free room that
// can still hold them, opening a new slot when none can. Rejections never
// abort packing; they are returned next to the partial layout.
package packing
