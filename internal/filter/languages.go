package filter

import (
	"path/filepath"
	"sort"
	"strings"
)

// extToLanguage maps file extensions to canonical language names.
var extToLanguage = map[string]string{
	".go":    "go",
	".ts":    "typescript",
	".tsx":   "typescript",
	".js":    "javascript",
	".jsx":   "javascript",
	".mjs":   "javascript",
	".py":    "python",
	".rs":    "rust",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".cc":    "cpp",
	".cxx":   "cpp",
	".hpp":   "cpp",
	".hh":    "cpp",
	".java":  "java",
	".php":   "php",
	".rb":    "ruby",
	".cs":    "csharp",
	".kt":    "kotlin",
	".swift": "swift",
	".lua":   "lua",
	".sh":    "sh",
}

// LanguageForFile returns the canonical language name for a file path based
// on its extension. Returns ("", false) if the extension is not recognized.
func LanguageForFile(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	lang, ok := extToLanguage[ext]
	return lang, ok
}

// Languages returns the sorted set of supported language names.
func Languages() []string {
	seen := make(map[string]bool)
	var langs []string
	for _, l := range extToLanguage {
		if !seen[l] {
			seen[l] = true
			langs = append(langs, l)
		}
	}
	sort.Strings(langs)
	return langs
}

// IsLanguage reports whether name is a supported language.
func IsLanguage(name string) bool {
	for _, l := range extToLanguage {
		if l == name {
			return true
		}
	}
	return false
}
