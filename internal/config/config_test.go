package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t-k-/ctags-companion/internal/tags"
)

func writeConfig(t *testing.T, root, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(body), 0644))
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	root := filepath.Join(t.TempDir(), "myproject")
	require.NoError(t, os.Mkdir(root, 0755))
	t.Setenv(EnvTagsPath, "")

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, DefaultTagsPath, cfg.Path)
	assert.Equal(t, "myproject", cfg.Name)
	assert.Empty(t, cfg.Include)
	assert.Equal(t, filepath.Join(root, "tags"), cfg.TagsPath(root))
}

func TestLoad_FullFile(t *testing.T) {
	root := t.TempDir()
	t.Setenv(EnvTagsPath, "")
	writeConfig(t, root, `
name = "backend"
path = ".git/tags"
include = ["src/"]
exclude = ["vendor/", "*_test.go"]
languages = ["go", "python"]
kind_preset = "universal"
kind_script = "kinds.risor"

[kinds]
struct = "class"
method = "Method"
`)

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "backend", cfg.Name)
	assert.Equal(t, ".git/tags", cfg.Path)
	assert.Equal(t, []string{"src/"}, cfg.Include)
	assert.Equal(t, []string{"vendor/", "*_test.go"}, cfg.Exclude)
	assert.Equal(t, []string{"go", "python"}, cfg.Languages)
	assert.Equal(t, "universal", cfg.KindPreset)
	assert.Equal(t, "kinds.risor", cfg.KindScript)
	assert.Equal(t, filepath.Join(root, ".git", "tags"), cfg.TagsPath(root))

	aliases, err := cfg.KindAliases()
	require.NoError(t, err)
	assert.Equal(t, map[string]tags.Category{
		"struct": tags.CategoryClass,
		"method": tags.CategoryMethod,
	}, aliases)

	f, err := cfg.Filter()
	require.NoError(t, err)
	assert.True(t, f.Allow("src/main.go"))
	assert.False(t, f.Allow("src/main_test.go"))
	assert.False(t, f.Allow("vendor/lib.go"))
}

func TestLoad_EnvOverridesPath(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `path = "from-file"`)
	t.Setenv(EnvTagsPath, "/abs/tags")

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "/abs/tags", cfg.Path)
	assert.Equal(t, "/abs/tags", cfg.TagsPath(root))
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	root := t.TempDir()
	t.Setenv(EnvTagsPath, "build/tags")

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "build", "tags"), cfg.TagsPath(root))
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv(EnvTagsPath, "")

	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad toml", `path = `, "decode"},
		{"unknown key", "path = \"tags\"\ncolour = \"red\"", "unknown keys: colour"},
		{"bad language", `languages = ["cobol"]`, `unsupported language "cobol"`},
		{"bad category", "[kinds]\nstruct = \"record\"", `kinds.struct: unknown category "record"`},
		{"bad preset", `kind_preset = "cobol"`, `unknown preset "cobol" (have letters, universal)`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeConfig(t, root, tt.body)
			_, err := Load(root)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	t.Parallel()
	cfg := &Config{
		Languages: []string{"cobol"},
		Kinds:     map[string]string{"a": "nope", "b": "zip"},
	}
	err := cfg.Validate()
	require.Error(t, err)

	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs, 3)
	assert.Equal(t, "kinds.a", verrs[1].Field)
	assert.Equal(t, "kinds.b", verrs[2].Field)
}

func TestLoadFromPath_Missing(t *testing.T) {
	t.Parallel()
	_, err := LoadFromPath(filepath.Join(t.TempDir(), FileName))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSetDefaults(t *testing.T) {
	t.Parallel()
	cfg := &Config{Path: "  "}
	cfg.SetDefaults("/work/app/")
	assert.Equal(t, DefaultTagsPath, cfg.Path)
	assert.Equal(t, "app", cfg.Name)
}
