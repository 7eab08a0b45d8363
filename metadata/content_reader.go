package metadata

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/exp/mmap"
)

var openMmapReader = mmap.Open

// ReadImage loads a file's bytes for analysis. Files at or above
// mmapMinSize are read through a memory map with a streaming fallback;
// maxSize of 0 means unlimited.
func ReadImage(path string, maxSize, mmapMinSize int64) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if maxSize > 0 && info.Size() > maxSize {
		return nil, fmt.Errorf("file %s exceeds size limit (%d > %d bytes)", path, info.Size(), maxSize)
	}
	if mmapMinSize > 0 && info.Size() >= mmapMinSize {
		if data, err := readImageMmap(path, info.Size()); err == nil {
			return data, nil
		}
	}
	return readImageStream(path)
}

func readImageMmap(path string, size int64) ([]byte, error) {
	r, err := openMmapReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	if size <= 0 {
		return []byte{}, nil
	}
	buf := make([]byte, size)
	if _, err := r.ReadAt(buf, 0); err != nil {
		return nil, err
	}
	return buf, nil
}

func readImageStream(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
