package registry

import "slices"

// EventKind tells consumers what changed.
type EventKind int

const (
	// Structural means a system was added or removed, or a roster changed.
	// Consumers should re-check which system they are bound to.
	Structural EventKind = iota
	// Content means declarations, defines or element counts changed.
	// Consumers only need to re-read composed output.
	Content
)

func (k EventKind) String() string {
	if k == Structural {
		return "structural"
	}
	return "content"
}

// Event describes one change.
type Event struct {
	Kind   EventKind
	System string
}

// IsStructural reports whether the event is structural.
func (e Event) IsStructural() bool {
	return e.Kind == Structural
}

// Handler receives events.
type Handler func(Event)

type subscription struct {
	id int
	fn Handler
}

// Subscribe registers h for every future event and returns a function that
// removes it. Calling the returned function more than once is harmless.
func (r *Registry) Subscribe(h Handler) (cancel func()) {
	r.qmu.Lock()
	defer r.qmu.Unlock()
	r.nextSub++
	id := r.nextSub
	r.subs = append(r.subs, subscription{id: id, fn: h})
	return func() {
		r.qmu.Lock()
		defer r.qmu.Unlock()
		r.subs = slices.DeleteFunc(r.subs, func(s subscription) bool { return s.id == id })
	}
}

// emit queues events and, unless a drain is already running, delivers the
// queue until it is empty.
func (r *Registry) emit(events ...Event) {
	if len(events) == 0 {
		return
	}
	r.qmu.Lock()
	r.queue = append(r.queue, events...)
	if r.draining {
		r.qmu.Unlock()
		return
	}
	r.draining = true
	for len(r.queue) > 0 {
		ev := r.queue[0]
		r.queue = r.queue[1:]
		subs := slices.Clone(r.subs)
		r.qmu.Unlock()

		r.logger.Debug("Dispatching registry event.", "kind", ev.Kind.String(), "system", ev.System, "subscribers", len(subs))
		for _, s := range subs {
			s.fn(ev)
		}

		r.qmu.Lock()
	}
	r.draining = false
	r.qmu.Unlock()
}
