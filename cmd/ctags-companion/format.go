package main

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"
	"time"
)

// formatDefinitionsText formats CLIDefinition results as aligned columns.
// The LOCATION column is "file:line" with the 0-based line.
func formatDefinitionsText(w io.Writer, defs []CLIDefinition) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tCATEGORY\tCONTAINER\tLOCATION")
	for _, d := range defs {
		container := "-"
		if d.Container != nil {
			container = *d.Container
		}
		name := d.Name
		if d.Scope != "" {
			name = d.Scope + ":" + name
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s:%d\n",
			name, d.Kind, d.Category, container, d.File, d.Line)
	}
	tw.Flush()
}

// formatIndexText formats CLIIndexResult results as aligned columns.
func formatIndexText(w io.Writer, results []CLIIndexResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SCOPE\tDEFINITIONS\tDOCUMENTS\tSKIPPED\tFILTERED\tTIME\tTAGS")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%dms\t%s\n",
			r.Scope, r.Definitions, r.Documents, r.Skipped, r.Filtered, r.DurationMS, r.TagsFile)
	}
	tw.Flush()
}

// formatSnapshotsText formats CLISnapshot results as aligned columns.
func formatSnapshotsText(w io.Writer, snaps []CLISnapshot) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SCOPE\tDEFINITIONS\tSKIPPED\tFILTERED\tINDEXED\tROOT")
	for _, s := range snaps {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%t\t%s\t%s\n",
			s.Scope, s.Definitions, s.Skipped, s.Filtered, s.IndexedAt.Local().Format(time.DateTime), s.Root)
	}
	tw.Flush()
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case []CLIDefinition:
		formatDefinitionsText(w, v)
	case []CLIIndexResult:
		formatIndexText(w, v)
	case []CLISnapshot:
		formatSnapshotsText(w, v)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}

	// Pagination footer.
	if result.TotalCount != nil {
		count := *result.TotalCount
		shown := resultLen(result.Results)
		if shown < count {
			fmt.Fprintf(w, "\nShowing %d of %d results\n", shown, count)
		}
	}
	return nil
}

// resultLen returns the length of a result slice.
func resultLen(v any) int {
	switch r := v.(type) {
	case []CLIDefinition:
		return len(r)
	case []CLIIndexResult:
		return len(r)
	case []CLISnapshot:
		return len(r)
	default:
		return 0
	}
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	if slices.Contains(validFormats, format) {
		return nil
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
