package packing

import (
	"cmp"
	"slices"
	"strings"

	"github.com/vk/bufcompose/internal/decl"
)

// Order selects the order in which accepted fields are fed to the packer.
type Order int

const (
	// OrderBySize packs larger fields first. Ties keep encounter order.
	OrderBySize Order = iota
	// OrderEncounter packs fields in the order they were declared.
	OrderEncounter
)

// String returns the flag spelling of the order.
func (o Order) String() string {
	switch o {
	case OrderEncounter:
		return "encounter"
	default:
		return "size"
	}
}

// ParseOrder maps "size" and "encounter" to an Order.
func ParseOrder(s string) (Order, bool) {
	switch s {
	case "size", "":
		return OrderBySize, true
	case "encounter":
		return OrderEncounter, true
	}
	return OrderBySize, false
}

type options struct {
	order Order
}

// Option configures Pack.
type Option func(*options)

// WithOrder sets the feed order of the packer.
func WithOrder(o Order) Option {
	return func(opts *options) {
		opts.order = o
	}
}

// Result is the outcome of one packing pass.
type Result struct {
	// Slots in creation order.
	Slots []*Slot
	// Fields holds every field that survived deduplication, valid or not, in
	// encounter order.
	Fields []decl.Field
	// Atoms is the sum of the sizes of all packed fields.
	Atoms int
	// Errors lists duplicate rejections in encounter order, followed by type
	// rejections.
	Errors []error
}

// Stride returns the byte size of one packed record. Unused room at the end
// of a slot does not count.
func (r *Result) Stride() int {
	return r.Atoms * AtomBytes
}

// Declarations returns the packed declarations in slot order, then in
// assignment order within each slot.
func (r *Result) Declarations() []string {
	var out []string
	for _, s := range r.Slots {
		out = append(out, s.Declarations()...)
	}
	return out
}

// Structure returns Declarations joined by single spaces.
func (r *Result) Structure() string {
	return strings.Join(r.Declarations(), " ")
}

// Messages returns the error list as strings.
func (r *Result) Messages() []string {
	out := make([]string, len(r.Errors))
	for i, err := range r.Errors {
		out[i] = err.Error()
	}
	return out
}

// Pack parses and packs declarations.
func Pack(declarations []string, opts ...Option) *Result {
	return PackFields(decl.ParseAll(declarations), opts...)
}

// PackFields packs already parsed fields.
func PackFields(fields []decl.Field, opts ...Option) *Result {
	o := options{order: OrderBySize}
	for _, opt := range opts {
		opt(&o)
	}

	res := &Result{}

	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, dup := seen[f.Name]; dup {
			res.Errors = append(res.Errors, &DuplicateNameError{Field: f})
			continue
		}
		seen[f.Name] = struct{}{}
		res.Fields = append(res.Fields, f)
	}

	var valid []decl.Field
	var invalid []decl.Field
	for _, f := range res.Fields {
		if f.Valid {
			valid = append(valid, f)
		} else {
			invalid = append(invalid, f)
		}
	}

	if o.order == OrderBySize {
		slices.SortStableFunc(valid, func(a, b decl.Field) int {
			return cmp.Compare(b.Size, a.Size)
		})
	}

	for _, f := range valid {
		if s := roomiest(res.Slots, f.Size); s != nil {
			s.fit(f)
		} else {
			s := &Slot{}
			s.fit(f)
			res.Slots = append(res.Slots, s)
		}
		res.Atoms += f.Size
	}

	for _, f := range invalid {
		res.Errors = append(res.Errors, &TypeError{Field: f})
	}

	return res
}

// roomiest returns the slot with the most remaining room that can hold size
// atoms. Among equally roomy slots the earliest one wins. Returns nil when no
// slot fits.
func roomiest(slots []*Slot, size int) *Slot {
	var best *Slot
	for _, s := range slots {
		if !s.CanFit(size) {
			continue
		}
		if best == nil || s.Remaining() > best.Remaining() {
			best = s
		}
	}
	return best
}
