package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sylphlab/mediadedup/internal/models"
	"github.com/sylphlab/mediadedup/internal/resolve"
)

// writeResult prints the scan result to stdout in the requested format.
func writeResult(result models.DeduplicationResult, format string) error {
	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Printf("unique files: %d\n", len(result.UniqueFiles))
	fmt.Printf("duplicate sets: %d\n", len(result.DuplicateSets))
	for _, set := range result.DuplicateSets {
		fmt.Printf("\ncluster %s (%d files)\n", set.ID, set.Size())
		fmt.Printf("  best: %s\n", set.BestFile)
		for _, rep := range set.Representatives {
			if rep != set.BestFile {
				fmt.Printf("  representative: %s\n", rep)
			}
		}
		for _, dup := range set.Duplicates {
			fmt.Printf("  duplicate: %s\n", dup)
		}
	}
	if len(result.Errors) > 0 {
		fmt.Printf("\nerrors: %d\n", len(result.Errors))
		for _, fe := range result.Errors {
			fmt.Printf("  %s: %s\n", fe.Path, fe.Message)
		}
	}
	return nil
}

// writeDebugReport writes the full result as indented JSON to path,
// regardless of --format, for post-hoc inspection.
func writeDebugReport(result models.DeduplicationResult, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// applyResolution moves non-representative duplicates to duplicatePath
// when --move is set, and errored files to errorPath whenever --error is
// given.
func applyResolution(result models.DeduplicationResult, flags pipelineFlags) error {
	return resolve.Apply(result, flags.move, flags.duplicatePath, flags.errorPath)
}
