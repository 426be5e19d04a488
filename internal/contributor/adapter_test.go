package contributor

import (
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/bufcompose/internal/aggregate"
	"github.com/vk/bufcompose/internal/registry"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r := registry.New(registry.WithLogger(quiet))
	r.Add("Fluid", "fluid.register")
	return r
}

func newAdapter(t *testing.T, r *registry.Registry, id string, opts ...Option) *Adapter {
	t.Helper()
	a := New(r, id, append([]Option{WithLogger(quiet)}, opts...)...)
	t.Cleanup(a.Close)
	return a
}

func TestCompose(t *testing.T) {
	t.Parallel()

	snap := aggregate.Snapshot{
		Structure:    "float3 pos; float life;",
		ElementCount: 15,
		Defines:      []string{"GRAVITY=1", "", "WIND"},
		Ranges: []aggregate.Range{
			{Contributor: "c1", Offset: 0, Size: 10},
			{Contributor: "c2", Offset: 10, Size: 5},
		},
	}

	assert.Equal(t, []string{
		"COMPOSITESTRUCT=float3 pos; float life;",
		"MAXPARTICLECOUNT=15",
		"GRAVITY=1",
		"WIND",
		"EMITTEROFFSET=10",
	}, Compose(snap, "c2", 5))

	assert.Equal(t, []string{
		"COMPOSITESTRUCT=float3 pos; float life;",
		"MAXPARTICLECOUNT=15",
		"GRAVITY=1",
		"WIND",
	}, Compose(snap, "reader", 0), "non-emitters get no offset")
}

func TestAdapter_PublishesAndReadsBack(t *testing.T) {
	t.Parallel()

	r := newRegistry(t)
	a := newAdapter(t, r, "emitter")
	a.SetSystem("Fluid")
	a.SetDeclarations([]string{"float3 pos;", "float3 vel;", "float life;"})
	a.SetDefines([]string{"GRAVITY=1"})
	a.SetEmitCount(10)
	a.Evaluate()

	assert.Equal(t, []string{
		"COMPOSITESTRUCT=float3 pos; float life; float3 vel;",
		"MAXPARTICLECOUNT=10",
		"GRAVITY=1",
		"EMITTEROFFSET=0",
	}, a.Output())
	assert.Equal(t, 10, a.ElementCount())
	assert.Equal(t, 28, a.Stride())
	bound, ok := a.Bound()
	require.True(t, ok)
	assert.Equal(t, "Fluid", bound)
}

func TestAdapter_SeesOtherContributors(t *testing.T) {
	t.Parallel()

	r := newRegistry(t)
	a := newAdapter(t, r, "a")
	a.SetSystem("Fluid")
	a.SetEmitCount(10)
	a.Evaluate()

	b := newAdapter(t, r, "b")
	b.SetSystem("Fluid")
	b.SetDeclarations([]string{"float4 color;"})
	b.SetEmitCount(5)
	b.Evaluate()

	assert.Contains(t, a.Output(), "MAXPARTICLECOUNT=15")
	assert.Contains(t, a.Output(), "COMPOSITESTRUCT=float4 color;")
	assert.Contains(t, b.Output(), "EMITTEROFFSET=10")

	a.Close()
	assert.Contains(t, b.Output(), "MAXPARTICLECOUNT=5")
	assert.Contains(t, b.Output(), "EMITTEROFFSET=0")

	_, ok := r.ByContributor("a")
	assert.False(t, ok)
}

func TestAdapter_OnlyChangedInputsArePushed(t *testing.T) {
	t.Parallel()

	r := newRegistry(t)
	a := newAdapter(t, r, "a")
	a.SetSystem("Fluid")
	a.Evaluate()

	var events atomic.Int32
	r.Subscribe(func(registry.Event) { events.Add(1) })

	a.Evaluate()
	assert.Equal(t, int32(0), events.Load(), "nothing changed")

	a.SetDeclarations([]string{"float a;"})
	a.SetDeclarations([]string{"float a;"})
	a.Evaluate()
	assert.Equal(t, int32(1), events.Load())
}

func TestAdapter_EmitCountDropToZeroWithdrawsSize(t *testing.T) {
	t.Parallel()

	r := newRegistry(t)
	a := newAdapter(t, r, "a")
	a.SetSystem("Fluid")
	a.SetEmitCount(4)
	a.Evaluate()
	require.Equal(t, 4, a.ElementCount())

	a.SetEmitCount(0)
	a.Evaluate()
	assert.Equal(t, 0, a.ElementCount())
	assert.NotContains(t, a.Output(), "EMITTEROFFSET=0")
}

func TestAdapter_UnknownSystemWaitsForStructuralChange(t *testing.T) {
	t.Parallel()

	r := newRegistry(t)
	a := newAdapter(t, r, "a")
	a.SetSystem("Smoke")
	a.SetDeclarations([]string{"float2 uv;"})
	a.Evaluate()

	assert.Empty(t, a.Output())
	_, ok := r.ByContributor("a")
	assert.False(t, ok)

	r.Add("Smoke", "smoke.register")

	assert.Equal(t, []string{"COMPOSITESTRUCT=float2 uv;", "MAXPARTICLECOUNT=0"}, a.Output())
	smoke, ok := r.ByContributor("a")
	require.True(t, ok)
	assert.Equal(t, "Smoke", smoke.Name())
}

func TestAdapter_StructuralChangesKeepElementRanges(t *testing.T) {
	t.Parallel()

	r := newRegistry(t)
	r.Add("Smoke", "smoke.register")

	first := newAdapter(t, r, "first")
	first.SetSystem("Fluid")
	first.SetEmitCount(100)
	first.Evaluate()

	second := newAdapter(t, r, "second")
	second.SetSystem("Fluid")
	second.SetEmitCount(50)
	second.Evaluate()

	want := []aggregate.Range{
		{Contributor: "first", Offset: 0, Size: 100},
		{Contributor: "second", Offset: 100, Size: 50},
	}

	r.Add("Fluid", "fluid.preview")
	r.Add("Smoke", "smoke.preview")
	r.Add("Rain", "rain.register")

	fluid, _ := r.Snapshot("Fluid")
	assert.Equal(t, want, fluid.Ranges, "roster changes must not reorder ranges")

	first.SetDeclarations([]string{"float a;"})
	first.Evaluate()

	fluid, _ = r.Snapshot("Fluid")
	assert.Equal(t, want, fluid.Ranges, "content updates after a roster change must not reorder ranges")
	assert.Contains(t, second.Output(), "EMITTEROFFSET=100")
}

func TestAdapter_RebindsWhenSystemIsRecreated(t *testing.T) {
	t.Parallel()

	r := newRegistry(t)
	r.Add("Smoke", "smoke.register")

	a := newAdapter(t, r, "a")
	a.SetSystem("Smoke")
	a.SetDeclarations([]string{"float2 uv;"})
	a.SetEmitCount(3)
	a.Evaluate()

	require.True(t, r.Release("Smoke", "smoke.register"))
	_, ok := r.ByContributor("a")
	require.False(t, ok)

	r.Add("Smoke", "smoke.register")

	smoke, ok := r.Snapshot("Smoke")
	require.True(t, ok)
	assert.Equal(t, "float2 uv;", smoke.Structure)
	assert.Equal(t, 3, smoke.ElementCount)
}

func TestAdapter_SwitchSystem(t *testing.T) {
	t.Parallel()

	r := newRegistry(t)
	r.Add("Smoke", "smoke.register")

	a := newAdapter(t, r, "a")
	a.SetSystem("Fluid")
	a.SetDeclarations([]string{"float a;"})
	a.SetDefines([]string{"FLUID"})
	a.Evaluate()

	a.SetSystem("Smoke")
	a.Evaluate()

	fluid, _ := r.Snapshot("Fluid")
	assert.Empty(t, fluid.Structure)
	assert.Empty(t, fluid.Defines)

	smoke, _ := r.Snapshot("Smoke")
	assert.Equal(t, "float a;", smoke.Structure)
	assert.Equal(t, []string{"FLUID"}, smoke.Defines)
	bound, _ := a.Bound()
	assert.Equal(t, "Smoke", bound)
}

func TestAdapter_OnChange(t *testing.T) {
	t.Parallel()

	r := newRegistry(t)
	var calls atomic.Int32
	a := newAdapter(t, r, "a", WithOnChange(func(*Adapter) { calls.Add(1) }))
	a.SetSystem("Fluid")
	a.SetDeclarations([]string{"float a;"})
	a.Evaluate()

	assert.Positive(t, calls.Load())
}

func TestAdapter_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	r := newRegistry(t)
	a := New(r, "a", WithLogger(quiet))
	a.SetSystem("Fluid")
	a.SetDeclarations([]string{"float a;"})
	a.Evaluate()

	a.Close()
	a.Close()
	a.Evaluate()

	snap, _ := r.Snapshot("Fluid")
	assert.Empty(t, snap.Structure)
}
