package packing

import (
	"fmt"

	"github.com/vk/bufcompose/internal/decl"
)

// DuplicateNameError reports a declaration whose name was already taken by
// an earlier declaration.
type DuplicateNameError struct {
	Field decl.Field
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("Duplicate and/or type mismatch and/or wrong type: '%s'", e.Field.Raw)
}

// TypeError reports a declaration that survived deduplication but whose type
// does not parse.
type TypeError struct {
	Field decl.Field
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("Wrong type: '%s'", e.Field.Raw)
}
