// ABOUTME: Data migration between minilok storage backends.
// ABOUTME: Copies activities, achievements and PDCA notes from source to destination.

package storage

import (
	"context"
	"fmt"
	"os"
)

// MigrateSummary holds counts of migrated entities.
type MigrateSummary struct {
	Activities   int
	Achievements int
	Pdca         int
	Skipped      int
}

// MigrateData copies all data from src to dst storage.
// Activities already present in dst (same name in the same cluster) are
// reused, and their achievements and notes are overwritten by the source.
func MigrateData(ctx context.Context, src, dst Repository) (*MigrateSummary, error) {
	data, err := src.GetAllData(ctx)
	if err != nil {
		return nil, fmt.Errorf("read source data: %w", err)
	}

	summary, err := ReplayData(ctx, dst, data)
	if err != nil {
		return nil, fmt.Errorf("write destination data: %w", err)
	}
	return summary, nil
}

// IsDirNonEmpty checks whether a directory exists and contains any files or subdirectories.
// Returns false if the directory does not exist or is empty.
func IsDirNonEmpty(path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read directory %q: %w", path, err)
	}
	return len(entries) > 0, nil
}
