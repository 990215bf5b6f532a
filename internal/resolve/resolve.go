// Package resolve applies a scan's move-to-folder resolution: relocating
// non-representative duplicates and errored files out of a library root,
// shared by the CLI's --move flag and the service's scheduled/watched
// scans, which read the same Move/DuplicatePath/ErrorPath settings from
// config.Config instead of flags.
package resolve

import (
	"os"
	"path/filepath"

	"github.com/sylphlab/mediadedup/internal/models"
)

// Apply moves non-representative duplicates to duplicatePath (when move is
// set) and errored files to errorPath (whenever one is configured),
// leaving representatives and unique files untouched.
func Apply(result models.DeduplicationResult, move bool, duplicatePath, errorPath string) error {
	if move && duplicatePath != "" {
		for _, set := range result.DuplicateSets {
			for _, dup := range set.Duplicates {
				if err := moveInto(dup, duplicatePath); err != nil {
					return err
				}
			}
		}
	}
	if errorPath != "" {
		for _, fe := range result.Errors {
			if err := moveInto(fe.Path, errorPath); err != nil {
				return err
			}
		}
	}
	return nil
}

func moveInto(srcPath, destDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}
	dest := filepath.Join(destDir, filepath.Base(srcPath))
	return os.Rename(srcPath, dest)
}
