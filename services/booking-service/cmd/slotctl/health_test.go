package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/md-rashed-zaman/slotbook/libs/runtime"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/grpcserver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHealthServer(t *testing.T, healthy *atomic.Bool) (*grpcserver.Health, string) {
	t.Helper()
	check := runtime.ReadyCheck{Name: "db", Check: func(context.Context) error {
		if healthy.Load() {
			return nil
		}
		return errors.New("db down")
	}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := grpcserver.NewHealth(logger, time.Hour, check)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := grpcserver.NewServer(logger, h)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)
	return h, lis.Addr().String()
}

func TestRunHealthServing(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	h, addr := startHealthServer(t, &healthy)
	h.Refresh(context.Background())

	var out bytes.Buffer
	err := runHealth(context.Background(), healthConfig{Addr: addr, Service: grpcserver.ServiceName, Timeout: 3 * time.Second}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "status=SERVING")
	assert.Regexp(t, `request_id=[0-9a-f-]{36}`, out.String())
}

func TestRunHealthNotServing(t *testing.T) {
	var healthy atomic.Bool
	h, addr := startHealthServer(t, &healthy)
	h.Refresh(context.Background())

	var out bytes.Buffer
	err := runHealth(context.Background(), healthConfig{Addr: addr, Timeout: 3 * time.Second}, &out)
	require.Error(t, err)
	assert.Contains(t, out.String(), "status=NOT_SERVING")
}

func TestHealthCommandUnreachable(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	require.NoError(t, lis.Close())

	cmd := newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{"health", "--addr", addr, "--timeout", "300ms"})
	assert.Error(t, cmd.Execute())
}
