package main

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/WerlingM/privacy-exif-cleaner/logger"
)

func TestHandleSignalEventCancelsContext(t *testing.T) {
	logger.Init("error")

	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)

	done := make(chan struct{})
	go func() {
		handleSignalEvent(cancel, sigChan)
		close(done)
	}()

	sigChan <- syscall.SIGTERM

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("expected context to be canceled")
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("signal handler did not return")
	}
}
