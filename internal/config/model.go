package config

import (
	"fmt"
	"slices"
)

// Model is the merged content of all loaded files.
type Model struct {
	Systems      []*System
	Contributors []*Contributor
}

// System declares a named system and the roster ids that hold it open.
type System struct {
	Name    string
	Members []string
	// Source is the file the system was first declared in.
	Source string
}

// Contributor is one producer of declarations, defines and elements.
type Contributor struct {
	ID string
	// System is the target system. Empty means the default system.
	System    string
	Structure []string
	Defines   []string
	EmitCount int
	Source    string
}

// DefaultMember returns the roster id used for a system declared without
// explicit members.
func DefaultMember(system string) string {
	return system + ".register"
}

// System returns the system declared under name.
func (m *Model) System(name string) (*System, bool) {
	for _, s := range m.Systems {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// Contributor returns the contributor with the given id.
func (m *Model) Contributor(id string) (*Contributor, bool) {
	for _, c := range m.Contributors {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

// AddSystem merges s into the model. Declaring the same system twice merges
// the member lists.
func (m *Model) AddSystem(s *System) {
	if existing, ok := m.System(s.Name); ok {
		for _, id := range s.Members {
			if !slices.Contains(existing.Members, id) {
				existing.Members = append(existing.Members, id)
			}
		}
		return
	}
	m.Systems = append(m.Systems, s)
}

// AddContributor appends c. Contributor ids must be unique across all files.
func (m *Model) AddContributor(c *Contributor) error {
	if prev, ok := m.Contributor(c.ID); ok {
		return fmt.Errorf("contributor '%s' declared twice (%s and %s)", c.ID, prev.Source, c.Source)
	}
	m.Contributors = append(m.Contributors, c)
	return nil
}
