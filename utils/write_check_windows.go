//go:build windows

package utils

import (
	"os"
	"path/filepath"
)

// CanWriteToDirectory probes write permission by creating and removing a
// scratch file; Windows has no cheap access(2) equivalent that honors
// ACLs.
func CanWriteToDirectory(path string) bool {
	probe := filepath.Join(path, ".write_probe")
	f, err := os.OpenFile(probe, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0600)
	if err != nil {
		return false
	}
	f.Close()
	_ = os.Remove(probe)
	return true
}
