package main

import (
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List the indexes stored in the database",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	engine, _, err := openEngine()
	if err != nil {
		return outputError("status", err)
	}
	defer engine.Close()

	infos, err := engine.Snapshots()
	if err != nil {
		return outputError("status", err)
	}
	snaps := make([]CLISnapshot, len(infos))
	for i, info := range infos {
		snaps[i] = snapshotToCLI(info)
	}
	total := len(snaps)
	return outputResult(CLIResult{
		Command:    "status",
		Results:    snaps,
		TotalCount: &total,
	})
}
