// Package registry owns every named system's Aggregate and is the single
// entry point contributors use to publish declarations, defines and element
// counts.
//
// A Registry is constructed explicitly and passed to whoever needs it; it
// starts with one system, DefaultSystem. Members declare that a system
// exists (Add, Release, Remove); contributors attach content to a system by
// name (SetDeclarations, SetDefines, SetEmitterSize) and detach it by id
// alone, resolved through a reverse index.
//
// Every mutation queues an Event. Structural events signal that the set of
// systems or a roster changed; content events signal that composed output
// changed. Events are delivered synchronously after the mutation has
// finished and no registry lock is held, so handlers may call back into the
// registry. Events raised while handlers run are appended to the queue and
// delivered, in order, by the call that started draining it.
package registry
