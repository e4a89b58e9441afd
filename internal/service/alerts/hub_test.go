package alerts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MandiPulse/internal/domain/models"
)

func TestHubDeliversToClient(t *testing.T) {
	hub := NewHub(time.Second, 8, nil, nil)
	defer hub.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.ServeWS(w, r)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := NewClient("ws"+strings.TrimPrefix(srv.URL, "http"), time.Second)
	require.NoError(t, c.Connect(ctx))
	defer c.Close()
	assert.True(t, c.IsConnected())

	require.Eventually(t, func() bool { return hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	verdicts, _ := c.Read(ctx)
	hub.Broadcast(models.PriceVerdict{
		ID:        "v1",
		Commodity: models.Onion.String(),
		Market:    models.Okhla.String(),
		IsAnomaly: true,
		Reason:    models.ReasonTransport,
		Deviation: "40.6%",
	})

	select {
	case v := <-verdicts:
		assert.Equal(t, "v1", v.ID)
		assert.Equal(t, models.ReasonTransport, v.Reason)
		assert.Equal(t, "40.6%", v.Deviation)
	case <-ctx.Done():
		t.Fatal("no frame received")
	}
}

func TestHubCloseDisconnects(t *testing.T) {
	hub := NewHub(time.Second, 8, nil, nil)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.ServeWS(w, r)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := NewClient("ws"+strings.TrimPrefix(srv.URL, "http"), time.Second)
	require.NoError(t, c.Connect(ctx))
	defer c.Close()
	require.Eventually(t, func() bool { return hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	verdicts, errs := c.Read(ctx)
	require.NoError(t, hub.Close())
	assert.Equal(t, 0, hub.Count())

	select {
	case _, ok := <-verdicts:
		assert.False(t, ok)
	case <-ctx.Done():
		t.Fatal("stream not closed")
	}
	for err := range errs {
		assert.NoError(t, err)
	}

	// Broadcast after close is a no-op.
	hub.Broadcast(models.PriceVerdict{ID: "late"})
}
