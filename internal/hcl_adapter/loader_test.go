package hcl_adapter

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/bufcompose/internal/config"
	"github.com/vk/bufcompose/internal/ctxlog"
)

func testContext() context.Context {
	return ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_SystemsAndContributors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "fluid.hcl", `
system "Fluid" {
  members = ["fluid.main"]
}

system "Smoke" {}

contributor "sphere_emitter" {
  system     = "Fluid"
  structure  = ["float3 pos;", "float3 vel;", "float life;"]
  defines    = ["GRAVITY=9.81"]
  emit_count = 1000
}

contributor "reader" {
  structure = "float4 color;"
}
`)

	model, err := NewLoader().Load(testContext(), path)
	require.NoError(t, err)

	want := &config.Model{
		Systems: []*config.System{
			{Name: "Fluid", Members: []string{"fluid.main"}, Source: path},
			{Name: "Smoke", Members: []string{"Smoke.register"}, Source: path},
		},
		Contributors: []*config.Contributor{
			{
				ID:        "sphere_emitter",
				System:    "Fluid",
				Structure: []string{"float3 pos;", "float3 vel;", "float life;"},
				Defines:   []string{"GRAVITY=9.81"},
				EmitCount: 1000,
				Source:    path,
			},
			{
				ID:        "reader",
				Structure: []string{"float4 color;"},
				Source:    path,
			},
		},
	}
	if diff := cmp.Diff(want, model); diff != "" {
		t.Errorf("model mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_DirectoryIsWalked(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.hcl", `system "Fluid" { members = ["a"] }`)
	writeFile(t, dir, "nested/b.hcl", `
system "Fluid" { members = ["b"] }
contributor "c" { system = "Fluid" }
`)
	writeFile(t, dir, "notes.txt", `not hcl`)

	model, err := NewLoader().Load(testContext(), dir)
	require.NoError(t, err)

	require.Len(t, model.Systems, 1)
	assert.Equal(t, []string{"a", "b"}, model.Systems[0].Members)
	require.Len(t, model.Contributors, 1)
	assert.Nil(t, model.Contributors[0].Structure)
	assert.Zero(t, model.Contributors[0].EmitCount)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		content string
		errPart string
	}{
		{
			name:    "syntax error",
			content: `system "Fluid" {`,
			errPart: "failed to parse",
		},
		{
			name:    "unknown attribute type",
			content: `contributor "c" { structure = { a = 1 } }`,
			errPart: "must be a string or a list of strings",
		},
		{
			name:    "fractional emit count",
			content: `contributor "c" { emit_count = 1.5 }`,
			errPart: "whole number",
		},
		{
			name:    "negative emit count",
			content: `contributor "c" { emit_count = -1 }`,
			errPart: "must not be negative",
		},
		{
			name:    "emit count not a number",
			content: `contributor "c" { emit_count = "many" }`,
			errPart: "must be a number",
		},
		{
			name: "duplicate contributor",
			content: `
contributor "c" {}
contributor "c" {}
`,
			errPart: "declared twice",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			path := writeFile(t, t.TempDir(), "bad.hcl", tc.content)
			_, err := NewLoader().Load(testContext(), path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errPart)
		})
	}
}

func TestLoad_MissingPath(t *testing.T) {
	t.Parallel()

	_, err := NewLoader().Load(testContext(), filepath.Join(t.TempDir(), "missing.hcl"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestLoad_NumbersInStructureAreConverted(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "c.hcl", `contributor "c" { defines = ["A", 1] }`)
	model, err := NewLoader().Load(testContext(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "1"}, model.Contributors[0].Defines)
}
