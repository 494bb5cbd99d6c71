package configload

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/cmdkit/ctxlog"
	"github.com/vk/cmdkit/logging"
	"github.com/vk/cmdkit/schema"
)

// testContext returns a context carrying a logger that writes to the
// returned buffer, so tests can assert on warnings.
func testContext() (context.Context, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := logging.New(buf, "debug", "text")
	return ctxlog.WithLogger(context.Background(), logger), buf
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func staticEnviron(vars ...string) func() []string {
	return func() []string { return vars }
}

func TestResolve_PrecedenceOrder(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// One key per layer boundary: a only in defaults, b up to env, c up to
	// file, d present everywhere including the CLI overrides.
	s := schema.New(
		schema.Attr{Name: "a", Type: cty.String},
		schema.Attr{Name: "b", Type: cty.String},
		schema.Attr{Name: "c", Type: cty.String},
		schema.Attr{Name: "d", Type: cty.String},
	)
	defaults := map[string]any{"a": "default", "b": "default", "c": "default", "d": "default"}

	dir := t.TempDir()
	file := writeFile(t, dir, "app.toml", "c = \"file\"\nd = \"file\"\n")

	r := NewResolver().WithEnviron(staticEnviron(
		"APP_B=env", "APP_D=env", "UNRELATED=x",
	))
	ctx, _ := testContext()

	// --- Act ---
	got := r.Resolve(ctx, s, defaults, "APP_", []string{file}, map[string]any{"d": "cli"})

	// --- Assert ---
	expected := map[string]any{"a": "default", "b": "env", "c": "file", "d": "cli"}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_EnvCoercion(t *testing.T) {
	t.Parallel()

	r := NewResolver().WithEnviron(staticEnviron(
		"PREFIX_A_B=42",
		"PREFIX_FLAG=true",
		"PREFIX_NAME=foo",
		"PREFIX_RATIO=0.25",
	))
	ctx, _ := testContext()

	// A nil schema returns the merged layers as-is.
	got := r.Resolve(ctx, nil, nil, "PREFIX_", nil, nil)

	expected := map[string]any{
		"a":     map[string]any{"b": 42},
		"flag":  true,
		"name":  "foo",
		"ratio": 0.25,
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_FirstMatchFilePolicy(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := t.TempDir()
	first := writeFile(t, dir, "first.json", `{"source": "first", "only_first": true}`)
	second := writeFile(t, dir, "second.toml", "source = \"second\"\nonly_second = true\n")

	r := NewResolver().WithEnviron(staticEnviron())
	ctx, _ := testContext()

	// --- Act ---
	got := r.Resolve(ctx, nil, nil, "", []string{first, second}, nil)

	// --- Assert ---
	// First-match, not overlay: the second candidate is never read.
	assert.Equal(t, "first", got["source"])
	assert.Contains(t, got, "only_first")
	assert.NotContains(t, got, "only_second")
}

func TestResolve_BrokenFileFallsThroughToNextCandidate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	broken := writeFile(t, dir, "broken.json", `{"source":`)
	good := writeFile(t, dir, "good.json", `{"source": "good"}`)
	missing := filepath.Join(dir, "missing.json")

	r := NewResolver().WithEnviron(staticEnviron())
	ctx, buf := testContext()

	got := r.Resolve(ctx, nil, nil, "", []string{missing, broken, good}, nil)

	assert.Equal(t, "good", got["source"])
	assert.Contains(t, buf.String(), "Failed to load config file")
}

func TestResolve_UnknownExtensionSkippedWithWarning(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	odd := writeFile(t, dir, "config.ini", "source=odd")
	good := writeFile(t, dir, "config.yaml", "source: good\n")

	r := NewResolver().WithEnviron(staticEnviron())
	ctx, buf := testContext()

	got := r.Resolve(ctx, nil, nil, "", []string{odd, good}, nil)

	assert.Equal(t, "good", got["source"])
	assert.Contains(t, buf.String(), "No loader registered")
}

func TestResolve_ValidationFailureFallsBackToDefaults(t *testing.T) {
	t.Parallel()

	s := schema.New(schema.Attr{Name: "port", Type: cty.Number})
	defaults := map[string]any{"port": 8080}

	r := NewResolver().WithEnviron(staticEnviron())
	ctx, buf := testContext()

	got := r.Resolve(ctx, s, defaults, "", nil, map[string]any{"port": "not-a-port"})

	assert.Equal(t, map[string]any{"port": 8080}, got, "the run continues on the defaults")
	assert.Contains(t, buf.String(), "Invalid configuration value")
	assert.Contains(t, buf.String(), "falling back to defaults")
}

func TestResolve_DeepMergeSemantics(t *testing.T) {
	t.Parallel()

	defaults := map[string]any{
		"db":   map[string]any{"host": "localhost", "port": 5432},
		"tags": []any{"a", "b"},
	}

	r := NewResolver().WithEnviron(staticEnviron("APP_DB_PORT=9"))
	ctx, _ := testContext()

	got := r.Resolve(ctx, nil, defaults, "APP_", nil, map[string]any{"tags": []any{"c"}})

	expected := map[string]any{
		// Keyed structures merge recursively.
		"db": map[string]any{"host": "localhost", "port": 9},
		// Ordered sequences are replaced wholesale, never merged.
		"tags": []any{"c"},
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_DoesNotMutateDefaults(t *testing.T) {
	t.Parallel()

	defaults := map[string]any{"db": map[string]any{"port": 1}}

	r := NewResolver().WithEnviron(staticEnviron())
	ctx, _ := testContext()
	_ = r.Resolve(ctx, nil, defaults, "", nil, map[string]any{"db": map[string]any{"port": 2}})

	assert.Equal(t, 1, defaults["db"].(map[string]any)["port"])
}
