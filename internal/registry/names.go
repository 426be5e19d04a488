package registry

import (
	"slices"
	"sync"
)

// NameSink receives the current list of system names, e.g. to refresh a
// selection list offered to contributors.
type NameSink interface {
	PublishNames(names []string)
}

// NameList is a NameSink that keeps the last published list.
type NameList struct {
	mu      sync.RWMutex
	names   []string
	updates int
}

// PublishNames implements NameSink.
func (l *NameList) PublishNames(names []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.names = slices.Clone(names)
	l.updates++
}

// Names returns the last published list.
func (l *NameList) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.names)
}

// Updates returns how many times a list was published.
func (l *NameList) Updates() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.updates
}

// Contains reports whether name is in the last published list.
func (l *NameList) Contains(name string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Contains(l.names, name)
}
