package packing

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slotDecls(r *Result) [][]string {
	out := make([][]string, len(r.Slots))
	for i, s := range r.Slots {
		out[i] = s.Declarations()
	}
	return out
}

func TestPack_ParticleScenario(t *testing.T) {
	t.Parallel()

	res := Pack([]string{"float3 pos;", "float3 vel;", "float life;", "float3 pos;"})

	want := [][]string{
		{"float3 pos;", "float life;"},
		{"float3 vel;"},
	}
	if diff := cmp.Diff(want, slotDecls(res)); diff != "" {
		t.Errorf("slots mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 4, res.Slots[0].Occupied)
	assert.Equal(t, 3, res.Slots[1].Occupied)
	assert.Equal(t, 28, res.Stride())
	assert.Equal(t, []string{"Duplicate and/or type mismatch and/or wrong type: 'float3 pos;'"}, res.Messages())
	assert.Equal(t, "float3 pos; float life; float3 vel;", res.Structure())
}

func TestPack_DuplicateFirstWins(t *testing.T) {
	t.Parallel()

	res := Pack([]string{"float3 a;", "int a;"})

	require.Len(t, res.Fields, 1)
	assert.Equal(t, "float3 a;", res.Fields[0].Raw)
	require.Len(t, res.Errors, 1)

	var dup *DuplicateNameError
	require.ErrorAs(t, res.Errors[0], &dup)
	assert.Equal(t, "int a;", dup.Field.Raw)
}

func TestPack_DuplicateKeepsInvalidFirst(t *testing.T) {
	t.Parallel()

	res := Pack([]string{"vec3 a;", "float3 a;"})

	assert.Empty(t, res.Slots)
	assert.Equal(t, 0, res.Stride())
	assert.Equal(t, []string{
		"Duplicate and/or type mismatch and/or wrong type: 'float3 a;'",
		"Wrong type: 'vec3 a;'",
	}, res.Messages())
}

func TestPack_ErrorOrder(t *testing.T) {
	t.Parallel()

	res := Pack([]string{"bad x;", "float y;", "float y;", "half z;", "float x;"})

	assert.Equal(t, []string{
		"Duplicate and/or type mismatch and/or wrong type: 'float y;'",
		"Duplicate and/or type mismatch and/or wrong type: 'float x;'",
		"Wrong type: 'bad x;'",
		"Wrong type: 'half z;'",
	}, res.Messages())

	var typeErr *TypeError
	require.ErrorAs(t, res.Errors[2], &typeErr)
	assert.Equal(t, "x", typeErr.Field.Name)
}

func TestPack_OrderBySizeImprovesUtilization(t *testing.T) {
	t.Parallel()

	decls := []string{"float a;", "float b;", "float3 c;", "float3 d;"}

	bySize := Pack(decls)
	assert.Equal(t, [][]string{
		{"float3 c;", "float a;"},
		{"float3 d;", "float b;"},
	}, slotDecls(bySize))

	legacy := Pack(decls, WithOrder(OrderEncounter))
	assert.Equal(t, [][]string{
		{"float a;", "float b;"},
		{"float3 c;"},
		{"float3 d;"},
	}, slotDecls(legacy))

	assert.Equal(t, bySize.Stride(), legacy.Stride(), "stride does not depend on the slot count")
}

func TestPack_RoomiestSlotWins(t *testing.T) {
	t.Parallel()

	// Encounter order: a(3) -> s0, b(2) -> s1, c(1) -> s1 has 2 free, s0 has 1.
	res := Pack([]string{"float3 a;", "float2 b;", "float c;"}, WithOrder(OrderEncounter))
	assert.Equal(t, [][]string{
		{"float3 a;"},
		{"float2 b;", "float c;"},
	}, slotDecls(res))
}

func TestPack_OversizedFieldGetsOwnSlot(t *testing.T) {
	t.Parallel()

	res := Pack([]string{"float3x3 m;", "float f;"})

	require.Len(t, res.Slots, 2)
	assert.Equal(t, []string{"float3x3 m;"}, res.Slots[0].Declarations())
	assert.Equal(t, 0, res.Slots[0].Remaining())
	assert.Equal(t, []string{"float f;"}, res.Slots[1].Declarations())
	assert.Equal(t, 40, res.Stride())
}

func TestPack_Invariants(t *testing.T) {
	t.Parallel()

	decls := []string{
		"float a;", "float2 b;", "float3 c;", "float4 d;", "bool e;", "uint2 f;",
		"int g;", "double3 h;", "float2 i;", "floatx3 j;", "wrong k;", "float a;",
	}
	res := Pack(decls)

	sum := 0
	seen := map[string]int{}
	for _, s := range res.Slots {
		assert.LessOrEqual(t, s.Occupied, SlotCapacity)
		occ := 0
		for _, m := range s.Members {
			seen[m.Name]++
			occ += m.Size
			sum += m.Size
		}
		assert.Equal(t, occ, s.Occupied)
	}
	for _, f := range res.Fields {
		if f.Valid {
			assert.Equal(t, 1, seen[f.Name], "field %s must be in exactly one slot", f.Name)
		} else {
			assert.Zero(t, seen[f.Name])
		}
	}
	assert.Equal(t, 4*sum, res.Stride())
}

func TestPack_Idempotent(t *testing.T) {
	t.Parallel()

	decls := []string{"float2 a;", "float3 b;", "float c;", "float2 d;", "float4 e;"}
	first := Pack(decls)
	second := Pack(decls)
	if diff := cmp.Diff(slotDecls(first), slotDecls(second)); diff != "" {
		t.Errorf("repacking changed the layout (-first +second):\n%s", diff)
	}
}

func TestPack_Empty(t *testing.T) {
	t.Parallel()

	res := Pack(nil)
	assert.Empty(t, res.Slots)
	assert.Empty(t, res.Errors)
	assert.Equal(t, 0, res.Stride())
	assert.Equal(t, "", res.Structure())
}

func TestParseOrder(t *testing.T) {
	t.Parallel()

	o, ok := ParseOrder("encounter")
	require.True(t, ok)
	assert.Equal(t, OrderEncounter, o)
	assert.Equal(t, "encounter", o.String())

	o, ok = ParseOrder("size")
	require.True(t, ok)
	assert.Equal(t, OrderBySize, o)

	_, ok = ParseOrder("random")
	assert.False(t, ok)
}
