package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MandiPulse/internal/domain/models"
	domrepo "MandiPulse/internal/domain/repository"
	"MandiPulse/internal/middleware"
	xhttp "MandiPulse/pkg/http"
	"MandiPulse/pkg/metrics"
)

type nopPersister struct{}

func (nopPersister) Persist(context.Context, *models.PriceVerdict, domrepo.Sinks) (domrepo.Sinks, error) {
	return 0, nil
}

func TestRunStopsOnContextCancel(t *testing.T) {
	q := middleware.NewPersistQueue(nopPersister{}, metrics.Nop{})
	app := New(Components{Queue: q}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunReturnsListenerError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	srv := xhttp.NewServer(nil,
		xhttp.WithHost("127.0.0.1"),
		xhttp.WithPort(port),
		xhttp.WithMetricsPath(""),
		xhttp.WithTimeouts(time.Second, time.Second, time.Second),
	)
	app := New(Components{HTTP: srv}, nil)

	done := make(chan error, 1)
	go func() { done <- app.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not report the listener failure")
	}
}
