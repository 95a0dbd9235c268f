// Package runtime evaluates Risor kind scripts. A kind script extends the
// kind classifier: it evaluates to a map from tag kind to category name.
package runtime

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"

	"github.com/t-k-/ctags-companion/internal/tags"
)

// Runtime loads and evaluates Risor scripts.
type Runtime struct {
	scriptsDir string
	fsys       fs.FS
	logger     *slog.Logger
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeFS configures the Runtime to load scripts from an fs.FS
// instead of from disk. Import statements then resolve inside fsys too.
func WithRuntimeFS(fsys fs.FS) RuntimeOption {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// WithLogger sets the logger behind the scripts' log global.
func WithLogger(l *slog.Logger) RuntimeOption {
	return func(r *Runtime) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRuntime creates a Runtime resolving relative script paths and imports
// against scriptsDir.
func NewRuntime(scriptsDir string, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		scriptsDir: scriptsDir,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunSource evaluates Risor source code directly. Useful for testing
// without script files.
func (r *Runtime) RunSource(ctx context.Context, source string, extraGlobals map[string]any) (any, error) {
	return r.eval(ctx, source, "<inline>", extraGlobals)
}

// KindRules evaluates the kind script at scriptPath and returns its
// kind → category table. The script sees the built-in table as the
// builtin_kinds global and the valid category names as categories.
func (r *Runtime) KindRules(ctx context.Context, scriptPath string) (map[string]tags.Category, error) {
	src, err := r.LoadScript(scriptPath)
	if err != nil {
		return nil, err
	}
	return r.kindRules(ctx, src, scriptPath)
}

// KindRulesSource is KindRules for inline source.
func (r *Runtime) KindRulesSource(ctx context.Context, source string) (map[string]tags.Category, error) {
	return r.kindRules(ctx, source, "<inline>")
}

func (r *Runtime) kindRules(ctx context.Context, source, label string) (map[string]tags.Category, error) {
	val, err := r.eval(ctx, source, label, kindGlobals())
	if err != nil {
		return nil, err
	}
	table, ok := val.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("runtime: kind script %s: must evaluate to a map, got %T", label, val)
	}

	rules := make(map[string]tags.Category, len(table))
	for kind, v := range table {
		name, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("runtime: kind script %s: category for %q must be a string, got %T", label, kind, v)
		}
		cat, err := tags.ParseCategory(name)
		if err != nil {
			return nil, fmt.Errorf("runtime: kind script %s: kind %q: %w", label, kind, err)
		}
		rules[kind] = cat
	}
	r.logger.Debug("kind script evaluated", "script", label, "rules", len(rules))
	return rules, nil
}

// kindGlobals exposes the built-in vocabulary to kind scripts.
func kindGlobals() map[string]any {
	builtin := make(map[string]any)
	for kind, cat := range tags.NewClassifier(nil).Kinds() {
		builtin[kind] = cat.String()
	}
	names := []string{
		tags.CategoryUnknown.String(),
		tags.CategoryClass.String(),
		tags.CategoryFunction.String(),
		tags.CategoryMethod.String(),
		tags.CategoryVariable.String(),
	}
	sort.Strings(names)
	categories := make([]any, len(names))
	for i, n := range names {
		categories[i] = n
	}
	return map[string]any{
		"builtin_kinds": builtin,
		"categories":    categories,
	}
}

func (r *Runtime) eval(ctx context.Context, source, label string, extraGlobals map[string]any) (any, error) {
	globals := r.buildGlobals(extraGlobals)

	var opts []risor.Option
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}

	// Wire importer so Risor import statements resolve correctly.
	if imp := r.buildImporter(globals); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}

	result, err := risor.Eval(ctx, source, opts...)
	if err != nil {
		return nil, fmt.Errorf("runtime: script %s: %w", label, err)
	}
	if result == nil {
		return nil, nil
	}
	return result.Interface(), nil
}

// buildImporter returns a Risor importer configured for the Runtime's script source.
// Returns nil if neither fs.FS nor scriptsDir is configured.
func (r *Runtime) buildImporter(globals map[string]any) importer.Importer {
	globalNames := make([]string, 0, len(globals))
	for name := range globals {
		globalNames = append(globalNames, name)
	}

	if r.fsys != nil {
		return importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: globalNames,
			SourceFS:    r.fsys,
			Extensions:  []string{".risor"},
		})
	}
	if r.scriptsDir != "" {
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: globalNames,
			SourceDir:   r.scriptsDir,
			Extensions:  []string{".risor"},
		})
	}
	return nil
}

// LoadScript reads a .risor file and returns its source code.
// When an fs.FS is configured, uses fs.ReadFile on it.
// Otherwise, uses os.ReadFile with scriptsDir as the base directory.
func (r *Runtime) LoadScript(path string) (string, error) {
	if r.fsys != nil {
		fsPath := strings.TrimPrefix(filepath.ToSlash(path), "/")
		data, err := fs.ReadFile(r.fsys, fsPath)
		if err != nil {
			return "", fmt.Errorf("runtime: loading script %s from fs: %w", fsPath, err)
		}
		return string(data), nil
	}

	fullPath := path
	if !filepath.IsAbs(path) {
		fullPath = filepath.Join(r.scriptsDir, path)
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("runtime: loading script %s: %w", fullPath, err)
	}
	return string(data), nil
}

// buildGlobals constructs the full set of globals exposed to Risor scripts.
func (r *Runtime) buildGlobals(extra map[string]any) map[string]any {
	globals := map[string]any{
		"log": mustProxy(&logObject{logger: r.logger}),
	}
	for k, v := range extra {
		globals[k] = v
	}
	return globals
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy error: %v", err))
	}
	return p
}

// logObject provides log.Info/Warn/Error methods for Risor scripts.
type logObject struct {
	logger *slog.Logger
}

func (l *logObject) Info(msg string) {
	l.logger.Info(msg, "source", "script")
}

func (l *logObject) Warn(msg string) {
	l.logger.Warn(msg, "source", "script")
}

func (l *logObject) Error(msg string) {
	l.logger.Error(msg, "source", "script")
}
