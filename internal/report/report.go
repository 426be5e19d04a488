// Package report renders composed systems for humans (text) and tools (json,
// yaml).
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/vk/bufcompose/internal/aggregate"
	"gopkg.in/yaml.v3"
)

// Format names a renderer.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format '%s': must be 'text', 'json' or 'yaml'", s)
}

// System is the rendered view of one system.
type System struct {
	Name         string        `json:"name" yaml:"name"`
	Members      []string      `json:"members" yaml:"members"`
	Structure    string        `json:"structure" yaml:"structure"`
	Stride       int           `json:"stride" yaml:"stride"`
	ElementCount int           `json:"element_count" yaml:"element_count"`
	Slots        [][]string    `json:"slots" yaml:"slots"`
	Defines      []string      `json:"defines,omitempty" yaml:"defines,omitempty"`
	Errors       []string      `json:"errors,omitempty" yaml:"errors,omitempty"`
	Contributors []Contributor `json:"contributors,omitempty" yaml:"contributors,omitempty"`
}

// Contributor is the composed output one contributor reads back.
type Contributor struct {
	ID     string   `json:"id" yaml:"id"`
	Offset *int     `json:"offset,omitempty" yaml:"offset,omitempty"`
	Output []string `json:"output" yaml:"output"`
}

// FromSnapshot builds a System from an aggregate snapshot.
func FromSnapshot(snap aggregate.Snapshot) System {
	return System{
		Name:         snap.Name,
		Members:      snap.Members,
		Structure:    snap.Structure,
		Stride:       snap.Stride,
		ElementCount: snap.ElementCount,
		Slots:        snap.Slots,
		Defines:      snap.Defines,
		Errors:       snap.Errors,
	}
}

// Render writes systems to w in the given format.
func Render(w io.Writer, format Format, systems []System) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"systems": systems})
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(map[string]any{"systems": systems}); err != nil {
			return err
		}
		return enc.Close()
	case FormatText, "":
		return renderText(w, systems)
	}
	return fmt.Errorf("unknown output format '%s'", format)
}

func renderText(w io.Writer, systems []System) error {
	var b strings.Builder
	for i, s := range systems {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "system %q\n", s.Name)
		fmt.Fprintf(&b, "  members:       %s\n", strings.Join(s.Members, ", "))
		fmt.Fprintf(&b, "  stride:        %d bytes\n", s.Stride)
		fmt.Fprintf(&b, "  element count: %d\n", s.ElementCount)
		fmt.Fprintf(&b, "  structure:     %s\n", s.Structure)
		for j, slot := range s.Slots {
			fmt.Fprintf(&b, "  slot %d:        %s\n", j, strings.Join(slot, " "))
		}
		if len(s.Defines) > 0 {
			fmt.Fprintf(&b, "  defines:       %s\n", strings.Join(s.Defines, ", "))
		}
		for _, e := range s.Errors {
			fmt.Fprintf(&b, "  error:         %s\n", e)
		}
		for _, c := range s.Contributors {
			if c.Offset != nil {
				fmt.Fprintf(&b, "  contributor %q (offset %d)\n", c.ID, *c.Offset)
			} else {
				fmt.Fprintf(&b, "  contributor %q\n", c.ID)
			}
			for _, line := range c.Output {
				fmt.Fprintf(&b, "    %s\n", line)
			}
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
