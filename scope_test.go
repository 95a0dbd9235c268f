package companion

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t-k-/ctags-companion/internal/logging"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
}

func TestLoadScope_Defaults(t *testing.T) {
	t.Setenv("CTAGS_COMPANION_TAGS", "")
	root := t.TempDir()

	scope, err := LoadScope(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(root), scope.Name)
	assert.Equal(t, root, scope.Root)
	assert.Equal(t, filepath.Join(root, "tags"), scope.TagsPath())
	assert.Empty(t, scope.Filter.Fingerprint())
	assert.Equal(t, CategoryClass, scope.Classify("class"))
	assert.Equal(t, CategoryUnknown, scope.Classify("struct"))
}

func TestLoadScope_KindScriptThenTable(t *testing.T) {
	t.Setenv("CTAGS_COMPANION_TAGS", "")
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".ctags-companion.toml"), `
name = "service"
path = ".tags"
kind_script = "scripts/kinds.risor"
languages = ["go"]

[kinds]
func = "method"
`)
	writeFile(t, filepath.Join(root, "scripts", "kinds.risor"), `
log.Info("loading kind rules")
rules := {"struct": "class", "func": "function", "const": "variable"}
rules
`)

	scope, err := LoadScope(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, "service", scope.Name)
	assert.Equal(t, filepath.Join(root, ".tags"), scope.TagsPath())
	assert.NotEmpty(t, scope.Filter.Fingerprint())
	assert.True(t, scope.Filter.Allow("cmd/main.go"))
	assert.False(t, scope.Filter.Allow("web/app.ts"))

	assert.Equal(t, CategoryClass, scope.Classify("struct"))
	assert.Equal(t, CategoryVariable, scope.Classify("const"))
	// The [kinds] table wins over the script.
	assert.Equal(t, CategoryMethod, scope.Classify("func"))
}

func TestLoadScope_ScriptLogger(t *testing.T) {
	t.Setenv("CTAGS_COMPANION_TAGS", "")
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".ctags-companion.toml"), `kind_script = "kinds.risor"`+"\n")
	writeFile(t, filepath.Join(root, "kinds.risor"), `
log.Warn("mapping structs")
rules := {"struct": "class"}
rules
`)

	var buf bytes.Buffer
	scope, err := LoadScope(context.Background(), root, WithScriptLogger(logging.New(&buf, slog.LevelInfo)))
	require.NoError(t, err)
	assert.Equal(t, CategoryClass, scope.Classify("struct"))
	assert.Contains(t, buf.String(), "mapping structs")
	assert.Contains(t, buf.String(), "level=WARN")
}

func TestLoadScope_KindPreset(t *testing.T) {
	t.Setenv("CTAGS_COMPANION_TAGS", "")
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".ctags-companion.toml"), `
kind_preset = "universal"
kind_script = "kinds.risor"
`)
	writeFile(t, filepath.Join(root, "kinds.risor"), `{"macro": "variable"}`)

	scope, err := LoadScope(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, CategoryClass, scope.Classify("trait"))
	assert.Equal(t, CategoryFunction, scope.Classify("fn"))
	// The script wins over the preset.
	assert.Equal(t, CategoryVariable, scope.Classify("macro"))
}

func TestLoadScope_EnvTagsPath(t *testing.T) {
	t.Setenv("CTAGS_COMPANION_TAGS", "out/tags")
	root := t.TempDir()

	scope, err := LoadScope(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "out", "tags"), scope.TagsPath())
}

func TestLoadScope_Errors(t *testing.T) {
	t.Setenv("CTAGS_COMPANION_TAGS", "")

	tests := []struct {
		name   string
		config string
		script string
		want   string
	}{
		{
			name:   "unknown key",
			config: `colour = "blue"`,
			want:   "colour",
		},
		{
			name:   "bad category",
			config: "[kinds]\nstruct = \"type\"",
			want:   "kinds.struct",
		},
		{
			name:   "missing script",
			config: `kind_script = "nope.risor"`,
			want:   "nope.risor",
		},
		{
			name:   "script with bad category",
			config: `kind_script = "kinds.risor"`,
			script: `{"struct": "record"}`,
			want:   "record",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeFile(t, filepath.Join(root, ".ctags-companion.toml"), tt.config)
			if tt.script != "" {
				writeFile(t, filepath.Join(root, "kinds.risor"), tt.script)
			}
			_, err := LoadScope(context.Background(), root)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "companion: load scope")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestScope_TagsPath(t *testing.T) {
	t.Parallel()
	tests := []struct {
		scope Scope
		want  string
	}{
		{Scope{Root: "/work/app"}, "/work/app/tags"},
		{Scope{Root: "/work/app", TagsFile: ".git/tags"}, "/work/app/.git/tags"},
		{Scope{Root: "/work/app", TagsFile: "/var/cache/app.tags"}, "/var/cache/app.tags"},
		{Scope{Root: "/work/app", TagsFile: "/var/cache/../app.tags"}, "/var/app.tags"},
	}
	for _, tt := range tests {
		assert.Equal(t, filepath.FromSlash(tt.want), tt.scope.TagsPath())
	}
}

func TestScope_Rel(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	s := Scope{Root: root}

	rel, ok := s.Rel(filepath.Join(root, "pkg", "a.go"))
	assert.True(t, ok)
	assert.Equal(t, "pkg/a.go", rel)

	rel, ok = s.Rel(filepath.Join(root, "..data", "a.go"))
	assert.True(t, ok)
	assert.Equal(t, "..data/a.go", rel)

	_, ok = s.Rel(filepath.Dir(root))
	assert.False(t, ok)
	_, ok = s.Rel(filepath.Join(filepath.Dir(root), "sibling", "a.go"))
	assert.False(t, ok)
}

func TestScope_Symbol(t *testing.T) {
	t.Parallel()
	container := "Widget"
	s := Scope{Root: "/work/app", Classifier: NewClassifier(map[string]Category{"struct": CategoryClass})}

	sym := s.Symbol(Definition{Symbol: "render", File: "ui/widget.py", Line: 6, Kind: "member", Container: &container})
	assert.Equal(t, "render", sym.Name)
	assert.Equal(t, CategoryMethod, sym.Category)
	assert.Equal(t, filepath.FromSlash("/work/app/ui/widget.py"), sym.File)
	assert.Equal(t, 6, sym.Line)
	require.NotNil(t, sym.Container)
	assert.Equal(t, "Widget", *sym.Container)

	sym = s.Symbol(Definition{Symbol: "Grid", File: "grid.rs", Kind: "struct"})
	assert.Equal(t, CategoryClass, sym.Category)
	assert.Nil(t, sym.Container)
}
