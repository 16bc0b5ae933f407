package runtime

import (
	"bytes"
	"log/slog"
	"syscall"
	"testing"
	"time"
)

func TestSignalContextStop(t *testing.T) {
	ctx, stop := SignalContext(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	stop()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("expected context to be cancelled by stop")
	}
}

func TestSignalContextCancelsOnSignal(t *testing.T) {
	var buf bytes.Buffer
	ctx, stop := SignalContext(slog.New(slog.NewTextHandler(&buf, nil)))
	defer stop()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("kill: %v", err)
	}
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("expected context to be cancelled by SIGTERM")
	}
}
