package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLanguageForFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"main.go", "go", true},
		{"src/app.TSX", "typescript", true},
		{"lib.rs", "rust", true},
		{"include/util.h", "c", true},
		{"Makefile", "", false},
		{"notes.txt", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := LanguageForFile(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLanguages(t *testing.T) {
	t.Parallel()

	langs := Languages()
	assert.Contains(t, langs, "go")
	assert.Contains(t, langs, "python")
	assert.IsIncreasing(t, langs)
}

func TestNilFilterAllowsEverything(t *testing.T) {
	t.Parallel()

	var f *Filter
	assert.True(t, f.Allow("anything/at/all.xyz"))
}

func TestFilter_Exclude(t *testing.T) {
	t.Parallel()

	f, err := New(nil, []string{"vendor/", "*_test.go", "# comment", ""}, nil)
	require.NoError(t, err)

	assert.True(t, f.Allow("main.go"))
	assert.True(t, f.Allow("internal/store/store.go"))
	assert.False(t, f.Allow("vendor/github.com/x/y.go"))
	assert.False(t, f.Allow("internal/store/store_test.go"))
}

func TestFilter_Include(t *testing.T) {
	t.Parallel()

	f, err := New([]string{"src/"}, nil, nil)
	require.NoError(t, err)

	assert.True(t, f.Allow("src/a.c"))
	assert.True(t, f.Allow("./src/nested/b.c"))
	assert.False(t, f.Allow("test/a.c"))
}

func TestFilter_ExcludeWinsOverInclude(t *testing.T) {
	t.Parallel()

	f, err := New([]string{"*.py"}, []string{"migrations/"}, nil)
	require.NoError(t, err)

	assert.True(t, f.Allow("app/models.py"))
	assert.False(t, f.Allow("migrations/0001_initial.py"))
	assert.False(t, f.Allow("app/main.go"))
}

func TestFilter_Languages(t *testing.T) {
	t.Parallel()

	f, err := New(nil, nil, []string{"go", " python "})
	require.NoError(t, err)

	assert.True(t, f.Allow("cmd/main.go"))
	assert.True(t, f.Allow("tools/gen.py"))
	assert.False(t, f.Allow("web/app.ts"))
	assert.False(t, f.Allow("README"))
}

func TestFilter_UnsupportedLanguage(t *testing.T) {
	t.Parallel()

	_, err := New(nil, nil, []string{"cobol"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cobol")
}

func TestFilter_Fingerprint(t *testing.T) {
	t.Parallel()

	var none *Filter
	assert.Equal(t, "", none.Fingerprint())

	open, err := New(nil, []string{"", "# comment"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "", open.Fingerprint())

	a, err := New([]string{"src/"}, nil, []string{"go", "python"})
	require.NoError(t, err)
	b, err := New([]string{" src/ "}, nil, []string{"python", "go"})
	require.NoError(t, err)
	c, err := New(nil, []string{"src/"}, []string{"go", "python"})
	require.NoError(t, err)

	assert.NotEmpty(t, a.Fingerprint())
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}
