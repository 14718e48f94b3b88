// Package vpd reads and writes the key/value Vital Product Data exposed by
// coreboot under /sys/firmware/vpd.
package vpd

import (
	"os"
	"path/filepath"
)

var (
	// VpdDir is the sysfs directory holding the ro and rw partitions
	VpdDir = "/sys/firmware/vpd"
)

func getBaseDir(readOnly bool) string {
	if readOnly {
		return filepath.Join(VpdDir, "ro")
	}
	return filepath.Join(VpdDir, "rw")
}

// Get returns the value stored under key.
func Get(key string, readOnly bool) ([]byte, error) {
	return os.ReadFile(filepath.Join(getBaseDir(readOnly), key))
}

// Set stores value under key.
func Set(key string, value []byte, readOnly bool) error {
	// NOTE this is not implemented yet in the kernel interface, and will always
	// return a permission denied error
	return os.WriteFile(filepath.Join(getBaseDir(readOnly), key), value, 0644)
}

// GetAll returns every key of one partition.
func GetAll(readOnly bool) (map[string][]byte, error) {
	vpdMap := make(map[string][]byte)
	entries, err := os.ReadDir(getBaseDir(readOnly))
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		value, err := Get(entry.Name(), readOnly)
		if err != nil {
			return nil, err
		}
		vpdMap[entry.Name()] = value
	}
	return vpdMap, nil
}
