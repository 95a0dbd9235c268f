package scripts_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t-k-/ctags-companion/internal/runtime"
	"github.com/t-k-/ctags-companion/internal/tags"
	"github.com/t-k-/ctags-companion/scripts"
)

func kindRules(t *testing.T, preset string) map[string]tags.Category {
	t.Helper()
	rt := runtime.NewRuntime("", runtime.WithRuntimeFS(scripts.FS))
	rules, err := rt.KindRules(context.Background(), scripts.KindPresetPath(preset))
	require.NoError(t, err)
	return rules
}

func TestKindPresets(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"letters", "universal"}, scripts.KindPresets())
	assert.True(t, scripts.IsKindPreset("universal"))
	assert.False(t, scripts.IsKindPreset("cobol"))
	assert.False(t, scripts.IsKindPreset("../scripts"))
}

func TestKindPresets_Evaluate(t *testing.T) {
	t.Parallel()
	for _, name := range scripts.KindPresets() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			rules := kindRules(t, name)
			assert.NotEmpty(t, rules)
			for kind, cat := range rules {
				assert.NotEqual(t, tags.CategoryUnknown, cat, "kind %q", kind)
			}
		})
	}
}

func TestUniversalPreset(t *testing.T) {
	t.Parallel()
	rules := kindRules(t, "universal")
	assert.Equal(t, tags.CategoryClass, rules["struct"])
	assert.Equal(t, tags.CategoryClass, rules["trait"])
	assert.Equal(t, tags.CategoryFunction, rules["fn"])
	assert.Equal(t, tags.CategoryMethod, rules["method"])
	assert.Equal(t, tags.CategoryVariable, rules["constant"])
	assert.NotContains(t, rules, "class")
}

func TestLettersPreset(t *testing.T) {
	t.Parallel()
	rules := kindRules(t, "letters")
	assert.Equal(t, tags.CategoryClass, rules["c"])
	assert.Equal(t, tags.CategoryFunction, rules["f"])
	assert.Equal(t, tags.CategoryMethod, rules["m"])
	assert.Equal(t, tags.CategoryVariable, rules["v"])
}
