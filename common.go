package main

import (
	"os"

	"github.com/pkg/errors"
)

// checkForDiskutil fails early when the configured diskutil cannot be run.
func checkForDiskutil(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrap(err, "diskutil not found")
	}
	if info.IsDir() || info.Mode().Perm()&0o111 == 0 {
		return errors.Errorf("diskutil at %s is not executable", path)
	}
	return nil
}
