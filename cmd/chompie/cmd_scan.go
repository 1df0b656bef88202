package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// scanCmd lists what a run would track, without touching anything.
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List the files chompie would track under --dir",
	Args:  cobra.NoArgs,
	RunE:  runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	result, err := scanTree(context.Background(), cfg, rootDir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	total, nonBlank := 0, 0
	for _, f := range result.Files {
		fmt.Fprintf(out, "%7d lines %7d non-blank  %s\n", f.LineCount(), f.NonBlankCount(), f.Path())
		total += f.LineCount()
		nonBlank += f.NonBlankCount()
	}
	fmt.Fprintf(out, "%d files, %d lines, %d non-blank\n", len(result.Files), total, nonBlank)

	if len(result.Skipped) > 0 {
		fmt.Fprintf(out, "skipped %d files:\n", len(result.Skipped))
		for _, s := range result.Skipped {
			fmt.Fprintf(out, "  %s (%s)\n", s.Path, s.Reason)
		}
	}
	return nil
}
