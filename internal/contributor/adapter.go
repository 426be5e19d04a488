package contributor

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/vk/bufcompose/internal/registry"
)

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) {
		a.logger = l
	}
}

// WithOnChange registers fn to run after the composed output was refreshed.
// fn runs on the goroutine that changed the registry and must not block.
func WithOnChange(fn func(*Adapter)) Option {
	return func(a *Adapter) {
		a.onChange = fn
	}
}

// published is the last set of inputs pushed to the registry.
type published struct {
	ok           bool
	system       string
	declarations []string
	defines      []string
	emitCount    int
}

type dirty struct {
	system       bool
	declarations bool
	defines      bool
	emitCount    bool
}

func (d dirty) any() bool {
	return d.system || d.declarations || d.defines || d.emitCount
}

// Adapter is the registry-facing side of one producer. It is safe for
// concurrent use.
type Adapter struct {
	id       string
	reg      *registry.Registry
	logger   *slog.Logger
	onChange func(*Adapter)
	cancel   func()

	mu           sync.Mutex
	system       string
	declarations []string
	defines      []string
	emitCount    int
	dirty        dirty
	rebind       bool
	closed       bool
	published    published

	bound        string
	output       []string
	elementCount int
	stride       int
	errors       []string
}

// New creates an adapter for contributor id targeting registry.DefaultSystem
// and subscribes it to reg. Nothing is published until Evaluate.
func New(reg *registry.Registry, id string, opts ...Option) *Adapter {
	a := &Adapter{
		id:     id,
		reg:    reg,
		logger: slog.Default(),
		system: registry.DefaultSystem,
		dirty:  dirty{system: true, declarations: true, defines: true, emitCount: true},
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("contributor", id)
	a.cancel = reg.Subscribe(a.handle)
	return a
}

// ID returns the contributor id.
func (a *Adapter) ID() string {
	return a.id
}

// System returns the target system name.
func (a *Adapter) System() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.system
}

// SetSystem changes the target system.
func (a *Adapter) SetSystem(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if name != a.system {
		a.system = name
		a.dirty.system = true
	}
}

// SetDeclarations replaces the declarations.
func (a *Adapter) SetDeclarations(decls []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !slices.Equal(decls, a.declarations) {
		a.declarations = slices.Clone(decls)
		a.dirty.declarations = true
	}
}

// SetDefines replaces the defines.
func (a *Adapter) SetDefines(defines []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !slices.Equal(defines, a.defines) {
		a.defines = slices.Clone(defines)
		a.dirty.defines = true
	}
}

// SetEmitCount sets the number of elements this contributor emits. Zero
// means it emits none.
func (a *Adapter) SetEmitCount(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n != a.emitCount {
		a.emitCount = n
		a.dirty.emitCount = true
	}
}

// Invalidate makes the next Evaluate republish every input, which moves the
// contributor's element range to the end of its system.
func (a *Adapter) Invalidate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rebind = true
}

// Evaluate pushes changed inputs to the registry. After Invalidate
// or a change of target system, every input is removed and published again.
func (a *Adapter) Evaluate() {
	a.mu.Lock()
	if a.closed || (!a.rebind && !a.dirty.any()) {
		a.mu.Unlock()
		return
	}
	rebind := a.rebind || a.dirty.system
	d := a.dirty
	system := a.system
	decls := slices.Clone(a.declarations)
	defines := slices.Clone(a.defines)
	emitCount := a.emitCount
	a.rebind = false
	a.dirty = dirty{}
	a.published = published{ok: true, system: system, declarations: decls, defines: defines, emitCount: emitCount}
	a.mu.Unlock()

	if rebind {
		a.republish(system, decls, defines, emitCount)
		return
	}

	if d.declarations {
		a.reg.SetDeclarations(system, a.id, decls)
	}
	if d.defines {
		a.reg.SetDefines(system, a.id, defines)
	}
	if d.emitCount {
		a.setEmitterSize(system, emitCount)
	}
}

// republish removes every contribution and publishes it again to system.
func (a *Adapter) republish(system string, decls, defines []string, emitCount int) {
	a.logger.Debug("Rebinding contributor.", "system", system)
	a.reg.RemoveDefines(a.id)
	a.reg.SetDefines(system, a.id, defines)
	a.reg.RemoveEmitterSize(a.id)
	a.setEmitterSize(system, emitCount)
	a.reg.RemoveDeclarations(a.id)
	a.reg.SetDeclarations(system, a.id, decls)
	a.refresh()
}

func (a *Adapter) setEmitterSize(system string, n int) {
	if n > 0 {
		a.reg.SetEmitterSize(system, a.id, n)
		return
	}
	a.reg.RemoveEmitterSize(a.id)
}

// Close unsubscribes the adapter and withdraws all of its contributions.
func (a *Adapter) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	a.mu.Unlock()

	a.cancel()
	a.reg.RemoveDefines(a.id)
	a.reg.RemoveEmitterSize(a.id)
	a.reg.RemoveDeclarations(a.id)
	a.logger.Debug("Contributor closed.")
}

// handle refreshes the output on every event. A structural change of the
// published or bound system that leaves the contributor outside its target
// republishes the last published inputs; pending inputs wait for Evaluate.
func (a *Adapter) handle(ev registry.Event) {
	if ev.IsStructural() {
		a.mu.Lock()
		pub := a.published
		relevant := !a.closed && pub.ok && (ev.System == pub.system || ev.System == a.bound)
		a.mu.Unlock()

		if relevant && !a.boundTo(pub.system) {
			a.republish(pub.system, pub.declarations, pub.defines, pub.emitCount)
			return
		}
	}
	a.refresh()
}

// boundTo reports whether the registry currently files the contributor under
// system.
func (a *Adapter) boundTo(system string) bool {
	agg, ok := a.reg.ByContributor(a.id)
	return ok && agg.Name() == system
}

// refresh re-reads the composed output. When the contributor is not part of
// any system the previous output is kept.
func (a *Adapter) refresh() {
	agg, ok := a.reg.ByContributor(a.id)
	if !ok {
		return
	}
	snap := agg.Snapshot()

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.bound = snap.Name
	a.output = Compose(snap, a.id, a.emitCount)
	a.elementCount = snap.ElementCount
	a.stride = snap.Stride
	changedErrors := !slices.Equal(a.errors, snap.Errors)
	a.errors = snap.Errors
	onChange := a.onChange
	a.mu.Unlock()

	if changedErrors {
		for _, msg := range snap.Errors {
			a.logger.Warn("Declaration rejected.", "system", snap.Name, "error", msg)
		}
	}
	if onChange != nil {
		onChange(a)
	}
}

// Output returns the composed output of the last refresh.
func (a *Adapter) Output() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.output)
}

// ElementCount returns the element count of the bound system.
func (a *Adapter) ElementCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.elementCount
}

// Stride returns the byte stride of the bound system.
func (a *Adapter) Stride() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stride
}

// Bound returns the system the last output was composed from.
func (a *Adapter) Bound() (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bound, a.bound != ""
}

// EmitCount returns the configured element count.
func (a *Adapter) EmitCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.emitCount
}
