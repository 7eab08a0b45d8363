package processor

import (
	"os"
	"time"

	"github.com/djherbis/times"
)

type fileTimes struct {
	access time.Time
	mod    time.Time
}

func captureTimes(path string) (fileTimes, error) {
	ts, err := times.Stat(path)
	if err != nil {
		return fileTimes{}, err
	}
	return fileTimes{access: ts.AccessTime(), mod: ts.ModTime()}, nil
}

func (t fileTimes) restore(path string) error {
	return os.Chtimes(path, t.access, t.mod)
}
