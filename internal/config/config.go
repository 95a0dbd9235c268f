// Package config loads the per-scope .ctags-companion.toml file.
//
// A missing file is not an error: the scope is indexed with defaults.
// Environment variables override file values:
//
//	CTAGS_COMPANION_TAGS   tags file path (relative to the scope root or absolute)
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/t-k-/ctags-companion/internal/filter"
	"github.com/t-k-/ctags-companion/internal/tags"
	"github.com/t-k-/ctags-companion/scripts"
)

const (
	// FileName is the config file looked up at a scope root.
	FileName = ".ctags-companion.toml"

	// DefaultTagsPath is the tags file used when none is configured.
	DefaultTagsPath = "tags"

	// EnvTagsPath overrides Config.Path.
	EnvTagsPath = "CTAGS_COMPANION_TAGS"
)

// Config is the per-scope configuration.
type Config struct {
	// Name is the scope's display name. Defaults to the root's base name.
	Name string `toml:"name"`

	// Path is the tags file, relative to the scope root or absolute.
	Path string `toml:"path"`

	// Include and Exclude are gitignore-style patterns over tagged paths.
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`

	// Languages restricts indexing to files of these languages.
	Languages []string `toml:"languages"`

	// KindPreset names a built-in kind script. Applied first.
	KindPreset string `toml:"kind_preset"`

	// KindScript is a Risor script evaluating to a {kind: category} map.
	// Its rules override the preset's.
	KindScript string `toml:"kind_script"`

	// Kinds maps extra tag kinds to categories. Applied last.
	Kinds map[string]string `toml:"kinds"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{Path: DefaultTagsPath}
}

// Load reads FileName from root. A missing file yields defaults.
func Load(root string) (*Config, error) {
	cfg, err := LoadFromPath(filepath.Join(root, FileName))
	if errors.Is(err, fs.ErrNotExist) {
		cfg = Default()
		cfg.ApplyEnvOverrides()
		cfg.SetDefaults(root)
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	cfg.SetDefaults(root)
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file with validation.
// Errors from a missing file wrap fs.ErrNotExist.
func LoadFromPath(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config: %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnvOverrides applies environment variable overrides.
func (c *Config) ApplyEnvOverrides() {
	if p := os.Getenv(EnvTagsPath); p != "" {
		c.Path = p
	}
}

// SetDefaults fills unset fields for a scope rooted at root.
func (c *Config) SetDefaults(root string) {
	if strings.TrimSpace(c.Path) == "" {
		c.Path = DefaultTagsPath
	}
	if c.Name == "" {
		c.Name = filepath.Base(filepath.Clean(root))
	}
}

// TagsPath resolves Path against root.
func (c *Config) TagsPath(root string) string {
	if filepath.IsAbs(c.Path) {
		return filepath.Clean(c.Path)
	}
	return filepath.Join(root, c.Path)
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks languages, the kind preset and kind aliases.
func (c *Config) Validate() error {
	var errs ValidateErrors

	for _, l := range c.Languages {
		if !filter.IsLanguage(strings.TrimSpace(l)) {
			errs = append(errs, ValidationError{
				Field:   "languages",
				Message: fmt.Sprintf("unsupported language %q", l),
			})
		}
	}

	if c.KindPreset != "" && !scripts.IsKindPreset(c.KindPreset) {
		errs = append(errs, ValidationError{
			Field:   "kind_preset",
			Message: fmt.Sprintf("unknown preset %q (have %s)", c.KindPreset, strings.Join(scripts.KindPresets(), ", ")),
		})
	}

	kinds := make([]string, 0, len(c.Kinds))
	for k := range c.Kinds {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		if strings.TrimSpace(k) == "" {
			errs = append(errs, ValidationError{Field: "kinds", Message: "empty kind name"})
			continue
		}
		if _, err := tags.ParseCategory(c.Kinds[k]); err != nil {
			errs = append(errs, ValidationError{
				Field:   "kinds." + k,
				Message: fmt.Sprintf("unknown category %q", c.Kinds[k]),
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// KindAliases returns the [kinds] table as categories.
func (c *Config) KindAliases() (map[string]tags.Category, error) {
	out := make(map[string]tags.Category, len(c.Kinds))
	for k, v := range c.Kinds {
		cat, err := tags.ParseCategory(v)
		if err != nil {
			return nil, fmt.Errorf("config: kinds.%s: %w", k, err)
		}
		out[k] = cat
	}
	return out, nil
}

// Filter compiles the include, exclude and language settings.
func (c *Config) Filter() (*filter.Filter, error) {
	return filter.New(c.Include, c.Exclude, c.Languages)
}
