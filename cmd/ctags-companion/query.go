package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	companion "github.com/t-k-/ctags-companion"
)

var (
	flagScopes []string
	flagLimit  int
	flagOffset int
)

// maxLimit caps --limit.
const maxLimit = 500

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the symbol index",
	Long:  "Run queries against one or more workspace roots. Scopes are indexed on first use. All line numbers are 0-based.",
}

func init() {
	queryCmd.PersistentFlags().StringSliceVar(&flagScopes, "scope", nil, "workspace root to query; repeatable (default: repo root)")
	queryCmd.PersistentFlags().IntVar(&flagLimit, "limit", 50, "pagination limit (max 500)")
	queryCmd.PersistentFlags().IntVar(&flagOffset, "offset", 0, "pagination offset")

	queryCmd.AddCommand(definitionCmd)
	queryCmd.AddCommand(symbolsCmd)
	queryCmd.AddCommand(searchCmd)
}

var definitionCmd = &cobra.Command{
	Use:   "definition <symbol>",
	Short: "Find every definition of a symbol",
	Long:  "Exact, case-sensitive lookup of a symbol name in each scope, in tags-file order.",
	Args:  cobra.ExactArgs(1),
	RunE:  runDefinition,
}

func runDefinition(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	scopes, engine, err := openQuery(cmd)
	if err != nil {
		return outputError("definition", err)
	}
	defer engine.Close()

	q := engine.Query()
	var defs []CLIDefinition
	for _, s := range scopes {
		found, err := q.DefinitionsFor(ctx, s, args[0])
		if err != nil {
			return outputError("definition", err)
		}
		for _, d := range found {
			defs = append(defs, definitionToCLI(s, d, len(scopes) > 1))
		}
	}
	return outputPage("definition", defs)
}

var symbolsCmd = &cobra.Command{
	Use:   "symbols <file>",
	Short: "List the symbols defined in a file",
	Long:  "Lists the definitions recorded for a document, in tags-file order. The file is resolved against the working directory and matched to the deepest scope containing it.",
	Args:  cobra.ExactArgs(1),
	RunE:  runSymbols,
}

func runSymbols(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	file, err := resolveFilePath(args[0])
	if err != nil {
		return outputError("symbols", err)
	}
	scopes, engine, err := openQuery(cmd)
	if err != nil {
		return outputError("symbols", err)
	}
	defer engine.Close()

	q := engine.Query()
	scope, ok := q.ScopeForPath(scopes, file)
	if !ok {
		return outputError("symbols", fmt.Errorf("no scope contains %s", file))
	}
	found, err := q.SymbolsInDocument(ctx, scope, file)
	if err != nil {
		return outputError("symbols", err)
	}

	defs := make([]CLIDefinition, len(found))
	for i, d := range found {
		defs[i] = definitionToCLI(scope, d, false)
	}
	return outputPage("symbols", defs)
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search symbols across the workspace",
	Long:  "Case-insensitive substring search over symbol names in every scope. Scopes that cannot be indexed are reported on stderr; results from the others are still printed.",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	scopes, engine, err := openQuery(cmd)
	if err != nil {
		return outputError("search", err)
	}
	defer engine.Close()

	results, err := engine.Query().SearchWorkspace(ctx, scopes, args[0])
	if err != nil {
		if len(results) == 0 {
			return outputError("search", err)
		}
		logger.Warn("search incomplete", "error", err)
	}

	defs := make([]CLIDefinition, len(results))
	for i, r := range results {
		defs[i] = definitionToCLI(r.Scope, r.Definition, len(scopes) > 1)
	}
	return outputPage("search", defs)
}

// --- Helpers ---

// openQuery loads the --scope roots and opens the engine.
func openQuery(cmd *cobra.Command) ([]companion.Scope, *companion.Engine, error) {
	if flagLimit < 0 || flagOffset < 0 {
		return nil, nil, fmt.Errorf("--limit and --offset must be non-negative")
	}
	scopes, err := loadScopes(cmd.Context(), flagScopes)
	if err != nil {
		return nil, nil, err
	}
	engine, _, err := openEngine()
	if err != nil {
		return nil, nil, err
	}
	return scopes, engine, nil
}

// resolveFilePath converts a file argument to an absolute path.
func resolveFilePath(file string) (string, error) {
	if filepath.IsAbs(file) {
		return filepath.Clean(file), nil
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", fmt.Errorf("resolving file path %q: %w", file, err)
	}
	return abs, nil
}

// paginate applies --offset and --limit.
func paginate[T any](items []T) []T {
	limit := min(flagLimit, maxLimit)
	if flagOffset >= len(items) {
		return []T{}
	}
	items = items[flagOffset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

// outputPage writes one page of defs with the total count.
func outputPage(command string, defs []CLIDefinition) error {
	total := len(defs)
	return outputResult(CLIResult{
		Command:    command,
		Results:    paginate(defs),
		TotalCount: &total,
	})
}

// outputResult marshals a CLIResult to stdout in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(os.Stdout, result)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	result := CLIResult{
		Command: command,
		Error:   err.Error(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	return err
}
