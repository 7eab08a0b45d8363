package editor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/WerlingM/privacy-exif-cleaner/logger"
)

// minTestedVersion is the oldest exiftool release the restore protocol has
// been verified against.
const minTestedVersion = 12.0

// ExifTool invokes the external exiftool binary, one subprocess per file.
type ExifTool struct {
	Binary  string
	Timeout time.Duration
}

func NewExifTool(binary string, timeout time.Duration) *ExifTool {
	if binary == "" {
		binary = "exiftool"
	}
	return &ExifTool{Binary: binary, Timeout: timeout}
}

// Probe checks that the binary is present and responding and returns its
// version. A failure here is fatal for the whole run.
func (t *ExifTool) Probe(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, t.Binary, "-ver").Output()
	if err != nil {
		return "", fmt.Errorf("exiftool not found or not responding (%s): %w", t.Binary, err)
	}
	version := strings.TrimSpace(string(out))
	if parsed, parseErr := strconv.ParseFloat(version, 64); parseErr == nil && parsed < minTestedVersion {
		logger.Warnf("exiftool %s is older than the minimum tested version %.2f", version, minTestedVersion)
	}
	return version, nil
}

// Apply executes the plan against src, writing to dst. When dst equals
// src the file is rewritten in place; otherwise exiftool writes a fresh
// copy and the original is never touched.
func (t *ExifTool) Apply(ctx context.Context, src, dst string, plan Plan) error {
	args := plan.Args()
	if dst != "" && dst != src {
		args = append(args, "-o", dst)
	} else {
		args = append(args, "-overwrite_original")
	}
	args = append(args, src)

	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, t.Binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logger.Debugf("Running %s %s", t.Binary, strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("exiftool timed out on %s: %w", src, ctx.Err())
		}
		message := strings.TrimSpace(stderr.String())
		if message == "" {
			message = err.Error()
		}
		return fmt.Errorf("exiftool failed on %s: %s", src, message)
	}
	return nil
}
