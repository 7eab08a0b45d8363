package processor

import (
	"fmt"
	"io"
	"os"

	"github.com/WerlingM/privacy-exif-cleaner/hasher"
)

// BackupFile copies path to a sibling with a .bak suffix appended to the
// existing extension and verifies the copy by hash. The original file is
// never written.
func BackupFile(path string) (string, error) {
	backupPath := path + ".bak"

	src, err := os.Open(path)
	if err != nil {
		return "", &BackupError{Path: path, BackupPath: backupPath, Err: err}
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return "", &BackupError{Path: path, BackupPath: backupPath, Err: err}
	}

	dst, err := os.OpenFile(backupPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return "", &BackupError{Path: path, BackupPath: backupPath, Err: err}
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		_ = os.Remove(backupPath)
		return "", &BackupError{Path: path, BackupPath: backupPath, Err: err}
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(backupPath)
		return "", &BackupError{Path: path, BackupPath: backupPath, Err: err}
	}

	srcHash, err := hasher.HashFile(path)
	if err != nil {
		_ = os.Remove(backupPath)
		return "", &BackupError{Path: path, BackupPath: backupPath, Err: err}
	}
	dstHash, err := hasher.HashFile(backupPath)
	if err != nil {
		_ = os.Remove(backupPath)
		return "", &BackupError{Path: path, BackupPath: backupPath, Err: err}
	}
	if srcHash != dstHash {
		_ = os.Remove(backupPath)
		return "", &BackupError{
			Path:       path,
			BackupPath: backupPath,
			Err:        fmt.Errorf("hash mismatch after copy (%s != %s)", srcHash, dstHash),
		}
	}
	return backupPath, nil
}
