package companion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"strings"

	"github.com/t-k-/ctags-companion/internal/config"
	"github.com/t-k-/ctags-companion/internal/logging"
	"github.com/t-k-/ctags-companion/internal/runtime"
	"github.com/t-k-/ctags-companion/internal/tags"
	"github.com/t-k-/ctags-companion/scripts"
)

// Scope is one workspace root with its tags file.
type Scope struct {
	// Name is the display name.
	Name string

	// Root identifies the scope. Two scopes with the same cleaned absolute
	// root are the same scope.
	Root string

	// TagsFile is relative to Root or absolute. Empty means "tags".
	TagsFile string

	// Filter restricts the indexed documents. nil indexes everything.
	Filter *Filter

	// Classifier maps kinds to categories. nil uses the built-in kinds.
	Classifier *Classifier
}

// TagsPath returns the tags file location.
func (s Scope) TagsPath() string {
	p := s.TagsFile
	if p == "" {
		p = config.DefaultTagsPath
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(s.Root, p)
}

// Classify maps kind to a category with the scope's classifier.
func (s Scope) Classify(kind string) Category {
	return s.Classifier.Classify(kind)
}

// Symbol resolves def for display.
func (s Scope) Symbol(def Definition) Symbol {
	return Symbol{
		Name:      def.Symbol,
		Kind:      def.Kind,
		Category:  s.Classify(def.Kind),
		Container: def.Container,
		File:      filepath.Join(s.Root, filepath.FromSlash(def.File)),
		Line:      def.Line,
	}
}

// Rel converts an absolute path under the scope root to the slash-separated
// relative form used in tags files. It reports false for paths outside the
// root.
func (s Scope) Rel(path string) (string, bool) {
	rel, err := filepath.Rel(s.Root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// key returns the identity of the scope: its absolute, cleaned root.
func (s Scope) key() (string, error) {
	if s.Root == "" {
		return "", errors.New("companion: scope has no root")
	}
	abs, err := filepath.Abs(s.Root)
	if err != nil {
		return "", fmt.Errorf("companion: scope root %s: %w", s.Root, err)
	}
	return abs, nil
}

func (s Scope) notFound(path string) error {
	return fmt.Errorf("%w: scope %s: %s", ErrTagsNotFound, s.Name, path)
}

// LoadOption configures LoadScope.
type LoadOption func(*loadOptions)

type loadOptions struct {
	logger *slog.Logger
}

// WithScriptLogger sets the logger behind the log global of kind scripts.
// Script output is discarded by default.
func WithScriptLogger(l *slog.Logger) LoadOption {
	return func(o *loadOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// LoadScope builds the Scope rooted at root from its .ctags-companion.toml.
// A missing config file yields a scope with default settings. Kind rules
// are layered: the built-in preset, then the kind script evaluated with ctx,
// then the [kinds] table.
func LoadScope(ctx context.Context, root string, opts ...LoadOption) (Scope, error) {
	o := loadOptions{logger: logging.Discard()}
	for _, opt := range opts {
		opt(&o)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return Scope{}, fmt.Errorf("companion: load scope %s: %w", root, err)
	}
	cfg, err := config.Load(abs)
	if err != nil {
		return Scope{}, fmt.Errorf("companion: load scope %s: %w", abs, err)
	}

	f, err := cfg.Filter()
	if err != nil {
		return Scope{}, fmt.Errorf("companion: load scope %s: %w", abs, err)
	}

	aliases := make(map[string]tags.Category)
	if cfg.KindPreset != "" {
		rt := runtime.NewRuntime("", runtime.WithRuntimeFS(scripts.FS), runtime.WithLogger(o.logger))
		rules, err := rt.KindRules(ctx, scripts.KindPresetPath(cfg.KindPreset))
		if err != nil {
			return Scope{}, fmt.Errorf("companion: load scope %s: %w", abs, err)
		}
		maps.Copy(aliases, rules)
	}
	if cfg.KindScript != "" {
		rules, err := runtime.NewRuntime(abs, runtime.WithLogger(o.logger)).KindRules(ctx, cfg.KindScript)
		if err != nil {
			return Scope{}, fmt.Errorf("companion: load scope %s: %w", abs, err)
		}
		maps.Copy(aliases, rules)
	}
	table, err := cfg.KindAliases()
	if err != nil {
		return Scope{}, fmt.Errorf("companion: load scope %s: %w", abs, err)
	}
	maps.Copy(aliases, table)

	return Scope{
		Name:       cfg.Name,
		Root:       abs,
		TagsFile:   cfg.Path,
		Filter:     f,
		Classifier: tags.NewClassifier(aliases),
	}, nil
}
