package storage

import (
	"os"
	"path/filepath"
)

// DiskUsageBytes sums the on-disk size of the given paths for the status
// surfaces. A path may be a single file (the corpus database) or a directory
// (the artifact output dir), which is walked recursively. Empty and missing
// paths contribute nothing.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		err := filepath.Walk(p, func(_ string, info os.FileInfo, err error) error {
			if err != nil {
				if os.IsNotExist(err) {
					return nil
				}
				return err
			}
			if !info.IsDir() {
				total += info.Size()
			}
			return nil
		})
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}
