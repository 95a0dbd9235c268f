package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	companion "github.com/t-k-/ctags-companion"
	"github.com/t-k-/ctags-companion/internal/logging"
)

var (
	flagDB      string
	flagFormat  string
	flagVerbose bool
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

// logger is configured by the root command before any subcommand runs.
var logger = logging.Discard()

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "ctags-companion",
	Short:         "Symbol navigation over ctags tags files",
	Long:          "ctags-companion indexes the tags files produced by universal-ctags and answers definition, document-symbol and workspace-search queries.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFormat(flagFormat); err != nil {
			return err
		}
		logger = newLogger()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "snapshot database path (default: .ctags-companion/index.db relative to repo root)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log debug output to stderr")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(statusCmd)
}

func newLogger() *slog.Logger {
	if flagVerbose {
		return logging.New(os.Stderr, slog.LevelDebug)
	}
	return logging.Default("cli")
}

var flagForce bool

var indexCmd = &cobra.Command{
	Use:   "index [root...]",
	Short: "Index the tags files of one or more workspace roots",
	Long:  "Parses each root's tags file and stores a snapshot in the database. Unchanged tags files are restored from their snapshot unless --force is given.",
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&flagForce, "force", false, "reparse tags files even when a snapshot is fresh")
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	start := time.Now()

	scopes, err := loadScopes(ctx, args)
	if err != nil {
		return outputError("index", err)
	}
	engine, dbPath, err := openEngine()
	if err != nil {
		return outputError("index", err)
	}
	defer engine.Close()

	var (
		results []CLIIndexResult
		errs    []error
	)
	for _, s := range scopes {
		scopeStart := time.Now()
		var p *companion.Pair
		if flagForce {
			p, err = engine.Reindex(ctx, s)
		} else {
			p, err = engine.Index(ctx, s)
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results = append(results, indexResultToCLI(s, p, time.Since(scopeStart)))
	}

	fmt.Fprintf(os.Stderr, "Indexed %d scope(s) in %s\n", len(results), time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "Database: %s\n", dbPath)

	if err := outputResult(CLIResult{Command: "index", Results: results}); err != nil {
		return err
	}
	if len(errs) > 0 {
		return fmt.Errorf("indexing had %d error(s): %w", len(errs), errors.Join(errs...))
	}
	return nil
}

// loadScopes loads the scope for each root argument. With no arguments the
// repository containing the working directory is the only scope.
func loadScopes(ctx context.Context, args []string) ([]companion.Scope, error) {
	roots := args
	if len(roots) == 0 {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting cwd: %w", err)
		}
		roots = []string{findRepoRoot(cwd)}
	}

	scopes := make([]companion.Scope, 0, len(roots))
	for _, r := range roots {
		dir, err := resolveTargetDir(r)
		if err != nil {
			return nil, err
		}
		s, err := companion.LoadScope(ctx, dir, companion.WithScriptLogger(logger.With("component", "kinds")))
		if err != nil {
			return nil, err
		}
		scopes = append(scopes, s)
	}
	return scopes, nil
}

// openEngine creates an Engine backed by the snapshot database.
func openEngine() (*companion.Engine, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("getting cwd: %w", err)
	}
	dbPath := resolveDBPath(findRepoRoot(cwd))
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, "", fmt.Errorf("creating %s: %w", dir, err)
	}

	engine, err := companion.New(companion.WithStore(dbPath), companion.WithLogger(logger))
	if err != nil {
		return nil, "", fmt.Errorf("creating engine: %w", err)
	}
	return engine, dbPath, nil
}

// resolveTargetDir returns the absolute path of a scope root.
func resolveTargetDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}

// resolveDBPath returns the database path from the --db flag or the default.
func resolveDBPath(repoRoot string) string {
	if flagDB != "" {
		if filepath.IsAbs(flagDB) {
			return flagDB
		}
		return filepath.Join(repoRoot, flagDB)
	}
	return filepath.Join(repoRoot, ".ctags-companion", "index.db")
}
