package decl

import (
	"regexp"
	"strconv"
	"strings"
)

// typePattern is the accepted type grammar. Row and column counts are single
// non-zero digits.
var typePattern = regexp.MustCompile(`^(float|double|uint|int|bool)([1-9]?)(x([1-9]))?$`)

// Field is one parsed declaration.
type Field struct {
	// Raw is the declaration text exactly as it was given.
	Raw string
	// Type is the type token, e.g. "float3x3".
	Type string
	// Name is the identifier with its trailing semicolon removed. Two fields
	// with the same Name are the same field for deduplication purposes.
	Name string
	// Kind is the base kind of Type, e.g. "float". Empty when invalid.
	Kind string
	Rows int
	Cols int
	// Size is Rows*Cols in atoms. Zero when the field is invalid.
	Size  int
	Valid bool
}

// Parse splits text into a type and a name token and validates the type.
// The name token must carry a semicolon; the last one is removed.
func Parse(text string) Field {
	f := Field{Raw: text}

	tokens := strings.Fields(text)
	if len(tokens) != 2 {
		return f
	}
	f.Type = tokens[0]

	semi := strings.LastIndex(tokens[1], ";")
	if semi < 0 {
		return f
	}
	f.Name = tokens[1][:semi] + tokens[1][semi+1:]
	if f.Name == "" {
		return f
	}

	m := typePattern.FindStringSubmatch(f.Type)
	if m == nil {
		return f
	}

	f.Kind = m[1]
	f.Rows = digitOr(m[2], 1)
	f.Cols = digitOr(m[4], 1)
	f.Size = f.Rows * f.Cols
	f.Valid = true
	return f
}

// ParseAll parses each declaration in order.
func ParseAll(texts []string) []Field {
	fields := make([]Field, len(texts))
	for i, t := range texts {
		fields[i] = Parse(t)
	}
	return fields
}

// String returns the declaration text.
func (f Field) String() string {
	return f.Raw
}

// digitOr returns the dimension captured by typePattern, or def when the
// dimension was omitted. The pattern only admits 1-9.
func digitOr(s string, def int) int {
	if s == "" {
		return def
	}
	n, _ := strconv.Atoi(s)
	return n
}
