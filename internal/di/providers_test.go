package di

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MandiPulse/internal/service/cache"
	"MandiPulse/pkg/config"
	applogger "MandiPulse/pkg/logger"
)

func TestOriginChecker(t *testing.T) {
	assert.Nil(t, originChecker(nil))
	assert.Nil(t, originChecker([]string{"https://a.example", "*"}))

	check := originChecker([]string{"https://dash.example"})
	require.NotNil(t, check)

	r := httptest.NewRequest("GET", "/ws/alerts", nil)
	assert.True(t, check(r), "no origin header")

	r.Header.Set("Origin", "https://DASH.example")
	assert.True(t, check(r))

	r.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(r))
}

func TestDisabledBackendsProvideNil(t *testing.T) {
	cfg := config.Default()
	l := applogger.NewNop()

	producer, cleanup, err := ProvideKafkaProducer(cfg)
	require.NoError(t, err)
	defer cleanup()
	assert.Nil(t, producer)
	assert.Nil(t, ProvideVerdictPublisher(producer, cfg))

	client, cleanup2, err := ProvideClickHouseClient(cfg)
	require.NoError(t, err)
	defer cleanup2()
	assert.Nil(t, client)

	store, err := ProvideAnalysisStore(client, l)
	require.NoError(t, err)
	assert.Nil(t, store)

	consumer, err := ProvideKafkaConsumer(cfg, l)
	require.NoError(t, err)
	assert.Nil(t, consumer)
}

func TestProvideCacheWithoutRedis(t *testing.T) {
	cfg := config.Default()
	c, cleanup, err := ProvideCache(cfg, applogger.NewNop())
	require.NoError(t, err)
	defer cleanup()
	assert.IsType(t, &cache.TTLCache{}, c)
}

func TestProvideAlertHubDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Alerts.Enabled = false
	hub, cleanup := ProvideAlertHub(cfg, applogger.NewNop())
	defer cleanup()
	assert.Nil(t, hub)
}
