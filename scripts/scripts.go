// Package scripts embeds the built-in Risor kind presets.
//
// Each preset under kinds/ evaluates to a {kind: category} map in the same
// form as a scope's kind_script.
package scripts

import (
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed kinds/*.risor
var FS embed.FS

// KindPresetPath returns the path of the named preset within FS.
func KindPresetPath(name string) string {
	return path.Join("kinds", name+".risor")
}

// KindPresets returns the embedded preset names, sorted.
func KindPresets() []string {
	entries, err := fs.ReadDir(FS, "kinds")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".risor"); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// IsKindPreset reports whether name is an embedded preset.
func IsKindPreset(name string) bool {
	_, err := fs.Stat(FS, KindPresetPath(name))
	return err == nil
}
