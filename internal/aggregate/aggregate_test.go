package aggregate

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/bufcompose/internal/packing"
)

func TestAggregate_Members(t *testing.T) {
	t.Parallel()

	a := New("Fluid", "reg.a")
	assert.Equal(t, "Fluid", a.Name())
	assert.True(t, a.HasMember("reg.a"))

	a.AddMember("reg.b")
	a.AddMember("reg.b")
	assert.Equal(t, []string{"reg.a", "reg.b"}, a.Members())

	assert.True(t, a.RemoveMember("reg.a"))
	assert.False(t, a.RemoveMember("reg.a"))
	assert.False(t, a.IsEmpty())
	assert.True(t, a.RemoveMember("reg.b"))
	assert.True(t, a.IsEmpty())
}

func TestAggregate_DeclarationsMergeAcrossContributors(t *testing.T) {
	t.Parallel()

	a := New("Fluid", "reg")
	a.SetDeclarations("emitter", []string{"float3 pos;", "float3 vel;"})
	a.SetDeclarations("force", []string{"float3 vel;", "float life;", "int pos;"})

	snap := a.Snapshot()
	want := [][]string{
		{"float3 pos;", "float life;"},
		{"float3 vel;"},
	}
	if diff := cmp.Diff(want, snap.Slots); diff != "" {
		t.Errorf("slots mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 28, a.Stride())
	assert.Equal(t, "float3 pos; float life; float3 vel;", a.Structure())
	assert.Equal(t, []string{"Duplicate and/or type mismatch and/or wrong type: 'int pos;'"}, a.Errors(),
		"the later contributor's conflicting name is dropped; exact repeats are not errors")
}

func TestAggregate_RemoveDeclarations(t *testing.T) {
	t.Parallel()

	a := New("Fluid", "reg")
	a.SetDeclarations("emitter", []string{"float3 pos;"})
	a.SetDeclarations("force", []string{"float4 col;"})
	require.Equal(t, 28, a.Stride())

	assert.True(t, a.RemoveDeclarations("emitter"))
	assert.False(t, a.RemoveDeclarations("emitter"))
	assert.False(t, a.HasDeclarations("emitter"))
	assert.Equal(t, "float4 col;", a.Structure())
	assert.Equal(t, 16, a.Stride())
}

func TestAggregate_SetDeclarationsReplaces(t *testing.T) {
	t.Parallel()

	a := New("Fluid", "reg")
	a.SetDeclarations("emitter", []string{"float3 pos;", "float life;"})
	a.SetDeclarations("emitter", []string{"float2 uv;"})
	assert.Equal(t, "float2 uv;", a.Structure())
	assert.Equal(t, 8, a.Stride())
}

func TestAggregate_Defines(t *testing.T) {
	t.Parallel()

	a := New("Fluid", "reg")
	a.SetDefines("a", []string{"GRAVITY=1", "WIND"})
	a.SetDefines("b", []string{"WIND", "DRAG"})
	assert.Equal(t, []string{"GRAVITY=1", "WIND", "DRAG"}, a.Defines())
	assert.Equal(t, []string{"WIND", "DRAG"}, a.DefinesOf("b"))
	assert.Nil(t, a.DefinesOf("missing"))

	assert.True(t, a.RemoveDefines("a"))
	assert.Equal(t, []string{"WIND", "DRAG"}, a.Defines())
	assert.False(t, a.RemoveDefines("a"))
	assert.Equal(t, "", a.Structure(), "defines do not affect packing")
}

func TestAggregate_OffsetsFollowInsertionOrder(t *testing.T) {
	t.Parallel()

	a := New("Fluid", "reg")
	require.True(t, a.SetEmitterSize("c1", 10))
	require.True(t, a.SetEmitterSize("c2", 5))

	assert.Equal(t, 0, a.Offset("c1"))
	assert.Equal(t, 10, a.Offset("c2"))
	assert.Equal(t, 15, a.ElementCount())
	assert.Equal(t, 15, a.Offset("unknown"), "unknown ids get the running total")

	// Replacing keeps the position.
	require.True(t, a.SetEmitterSize("c1", 20))
	assert.Equal(t, 20, a.Offset("c2"))

	// Removing and re-adding moves to the end.
	require.True(t, a.RemoveEmitterSize("c1"))
	require.True(t, a.SetEmitterSize("c1", 20))
	assert.Equal(t, []Range{
		{Contributor: "c2", Offset: 0, Size: 5},
		{Contributor: "c1", Offset: 5, Size: 20},
	}, a.Ranges())
}

func TestAggregate_OffsetsAreNotSorted(t *testing.T) {
	t.Parallel()

	a := New("Fluid", "reg")
	a.SetEmitterSize("zeta", 3)
	a.SetEmitterSize("alpha", 4)
	a.SetEmitterSize("10", 1)
	a.SetEmitterSize("2", 1)

	assert.Equal(t, 0, a.Offset("zeta"))
	assert.Equal(t, 3, a.Offset("alpha"))
	assert.Equal(t, 7, a.Offset("10"))
	assert.Equal(t, 8, a.Offset("2"))
}

func TestAggregate_EmitterSizeRejectsNonPositive(t *testing.T) {
	t.Parallel()

	a := New("Fluid", "reg")
	assert.False(t, a.SetEmitterSize("c", 0))
	assert.False(t, a.SetEmitterSize("c", -3))
	assert.False(t, a.HasContributor("c"))
	assert.False(t, a.RemoveEmitterSize("c"))
	assert.Equal(t, 0, a.ElementCount())
}

func TestAggregate_Contributors(t *testing.T) {
	t.Parallel()

	a := New("Fluid", "reg")
	a.SetEmitterSize("e", 1)
	a.SetDeclarations("d", []string{"float a;"})
	a.SetDefines("e", []string{"X"})
	a.SetDefines("f", []string{"Y"})

	assert.Equal(t, []string{"d", "e", "f"}, a.Contributors())
	assert.True(t, a.HasContributor("f"))
	assert.False(t, a.HasContributor("g"))
}

func TestAggregate_EncounterOrderOption(t *testing.T) {
	t.Parallel()

	a := New("Fluid", "reg", packing.WithOrder(packing.OrderEncounter))
	a.SetDeclarations("c", []string{"float a;", "float3 b;"})
	assert.Equal(t, [][]string{{"float a;", "float3 b;"}}, a.Snapshot().Slots)
}

func TestSnapshot_Offset(t *testing.T) {
	t.Parallel()

	a := New("Fluid", "reg")
	a.SetEmitterSize("c1", 10)
	a.SetEmitterSize("c2", 5)
	snap := a.Snapshot()

	assert.Equal(t, 10, snap.Offset("c2"))
	assert.Equal(t, 15, snap.Offset("nope"))
	assert.Equal(t, []string{"reg"}, snap.Members)
	assert.Equal(t, []string{"c1", "c2"}, snap.Contributors)
}
