package utils

import (
	"fmt"
	"os"
)

// DeleteDatabaseFileIfExists removes a regular file and ignores a missing
// one.
func DeleteDatabaseFileIfExists(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to check if file exists at path %s: %w", path, err)
	}

	if info.IsDir() {
		return fmt.Errorf("path %s is a directory, not a file", path)
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete database file at path %s: %w", path, err)
	}
	return nil
}
