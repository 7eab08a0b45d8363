//go:build !windows

package utils

import "golang.org/x/sys/unix"

// CanWriteToDirectory probes write permission via access(2), avoiding a
// scratch-file write.
func CanWriteToDirectory(path string) bool {
	return unix.Access(path, unix.W_OK) == nil
}
