package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// supportedExtensions are the image formats the external editor can
// rewrite and at least one decoder can read.
var supportedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".tif":  {},
	".tiff": {},
	".png":  {},
	".webp": {},
}

// IsSupportedImage reports whether the path has a supported image
// extension.
func IsSupportedImage(path string) bool {
	_, ok := supportedExtensions[NormalizedExt(path)]
	return ok
}

// NormalizedExt returns the lowercase extension including the dot.
func NormalizedExt(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// FormatFileSize renders a byte count for humans.
func FormatFileSize(bytes int64) string {
	units := []string{"B", "KB", "MB", "GB"}
	size := float64(bytes)
	unitIndex := 0
	for size >= 1024 && unitIndex < len(units)-1 {
		size /= 1024
		unitIndex++
	}
	if unitIndex == 0 {
		return fmt.Sprintf("%d %s", bytes, units[unitIndex])
	}
	return fmt.Sprintf("%.1f %s", size, units[unitIndex])
}

// ValidateDirectory checks that a path exists, is a directory, and is
// readable.
func ValidateDirectory(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("directory %s does not exist", path)
	}
	if !info.IsDir() {
		return fmt.Errorf("path %s is not a directory", path)
	}
	if _, err := os.ReadDir(path); err != nil {
		return fmt.Errorf("cannot read directory %s: %w", path, err)
	}
	return nil
}
