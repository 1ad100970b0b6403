package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseLaunchOptions(t *testing.T) {
	log := zap.NewNop()

	opts := ParseLaunchOptions(`{"headless":true,"args":["--foo"]}`, log)
	assert.Equal(t, true, opts["headless"])
	assert.Equal(t, []any{"--foo"}, opts["args"])

	assert.Empty(t, ParseLaunchOptions("", log))
	assert.Empty(t, ParseLaunchOptions("{not json", log), "malformed input must act as empty config")
	assert.Empty(t, ParseLaunchOptions("null", log))
}

func TestMerge_OverrideWinsOnTypeMismatch(t *testing.T) {
	base := LaunchOptions{"headless": true, "args": []any{"--a"}}
	override := LaunchOptions{"headless": "new", "args": "nope"}

	merged := Merge(base, override)

	assert.Equal(t, "new", merged["headless"])
	assert.Equal(t, "nope", merged["args"], "list vs non-list replaces wholesale")
}

func TestMerge_ArgListsUnionAsSets(t *testing.T) {
	base := LaunchOptions{"args": []any{"--a", "--b"}}
	override := LaunchOptions{"args": []any{"--b", "--c", "--a"}}

	merged := Merge(base, override)

	assert.Equal(t, []any{"--a", "--b", "--c"}, merged["args"],
		"base order first, new override elements appended, no duplicates")
}

func TestMerge_NestedObjectsRecurse(t *testing.T) {
	base := LaunchOptions{
		"defaultViewport": map[string]any{"width": 800.0, "height": 600.0},
	}
	override := LaunchOptions{
		"defaultViewport": map[string]any{"height": 1080.0},
		"devtools":        true,
	}

	merged := Merge(base, override)

	viewport, ok := merged["defaultViewport"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 800.0, viewport["width"])
	assert.Equal(t, 1080.0, viewport["height"])
	assert.Equal(t, true, merged["devtools"])
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	base := LaunchOptions{"args": []any{"--a"}}
	override := LaunchOptions{"args": []any{"--b"}}

	_ = Merge(base, override)

	assert.Equal(t, []any{"--a"}, base["args"])
	assert.Equal(t, []any{"--b"}, override["args"])
}

func TestMerge_RepeatedMergeIsIdempotent(t *testing.T) {
	a := LaunchOptions{
		"headless": true,
		"args":     []any{"--a"},
		"nested":   map[string]any{"x": 1.0},
	}
	b := LaunchOptions{
		"headless": false,
		"args":     []any{"--b"},
		"nested":   map[string]any{"y": 2.0},
	}

	once := Merge(a, b)
	twice := Merge(once, b)

	assert.Equal(t, once, twice)
}

func TestArgs(t *testing.T) {
	assert.Nil(t, Args(LaunchOptions{}))
	assert.Nil(t, Args(LaunchOptions{"args": 42}))
	assert.Equal(t, []string{"--a"}, Args(LaunchOptions{"args": []any{"--a", 1.0}}),
		"non-string elements are skipped")
	assert.Equal(t, []string{"--b"}, Args(LaunchOptions{"args": []string{"--b"}}))
}
