package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MandiPulse/internal/domain/models"
	domrepo "MandiPulse/internal/domain/repository"
	"MandiPulse/internal/domain/service/service_mocks"
	"MandiPulse/internal/services/analytics"
	pkgkafka "MandiPulse/pkg/kafka"
)

func newReportsFixture(t *testing.T) (*ReportsHandler, *service_mocks.MockMarketAnalyzer, *fakeStore, *fakePublisher) {
	ctrl := gomock.NewController(t)
	analyzer := service_mocks.NewMockMarketAnalyzer(ctrl)
	store, pub := &fakeStore{}, &fakePublisher{}
	checker := NewPriceChecker(analyzer, store, pub, nil, nil, newCountingMetrics(),
		PriceCheckerConfig{Timeout: time.Second}, nil)
	return NewReportsHandler("price_reports", checker, nil), analyzer, store, pub
}

func TestReportsHandlerFlagsAnomaly(t *testing.T) {
	h, analyzer, store, pub := newReportsFixture(t)
	analyzer.EXPECT().Analyze(10, models.Onion, models.Okhla, 45.0).Return(onionOkhla, nil)

	err := h.Handle(context.Background(), []byte(`{"report_id":"r-9","month":10,"commodity_name":"Onion","market_name":"Okhla","price":45}`))
	require.NoError(t, err)
	assert.Equal(t, "price_reports", h.Topic())

	require.Len(t, pub.published, 1)
	v := pub.published[0]
	assert.Equal(t, "r-9", v.ReportID)
	assert.Equal(t, models.SourceReport, v.Source)
	assert.Equal(t, models.StatusFlagged, v.Status)
	assert.Len(t, store.saved, 1)
}

func TestReportsHandlerPermanentFailures(t *testing.T) {
	cases := map[string]string{
		"malformed json":     `{"report_id":`,
		"unknown market":     `{"report_id":"r","month":1,"commodity_name":"Onion","market_name":"Nowhere","price":10}`,
		"month out of range": `{"report_id":"r","month":13,"commodity_name":"Onion","market_name":"Okhla","price":10}`,
		"negative price":     `{"report_id":"r","month":1,"commodity_name":"Onion","market_name":"Okhla","price":-1}`,
		"missing commodity":  `{"report_id":"r","month":1,"market_name":"Okhla","price":10}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			h, _, store, _ := newReportsFixture(t)
			err := h.Handle(context.Background(), []byte(body))
			require.Error(t, err)
			assert.True(t, pkgkafka.IsPermanent(err), "%v", err)
			assert.Empty(t, store.saved)
		})
	}
}

func TestReportsHandlerDegenerateIsPermanent(t *testing.T) {
	h, analyzer, _, _ := newReportsFixture(t)
	analyzer.EXPECT().Analyze(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(models.AnalysisResult{}, analytics.ErrDegenerateExpectedPrice)

	err := h.Handle(context.Background(), []byte(`{"report_id":"r","month":1,"commodity_name":"Milk","market_name":"Rohini","price":10}`))
	assert.True(t, pkgkafka.IsPermanent(err))
	assert.ErrorIs(t, err, analytics.ErrDegenerateExpectedPrice)
}

func TestReportsHandlerPublishFailureIsRetryable(t *testing.T) {
	h, analyzer, _, pub := newReportsFixture(t)
	pub.err = errors.New("broker down")
	analyzer.EXPECT().Analyze(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(onionOkhla, nil)

	err := h.Handle(context.Background(), []byte(`{"report_id":"r","month":10,"commodity_name":"Onion","market_name":"Okhla","price":45}`))
	require.Error(t, err)
	assert.False(t, pkgkafka.IsPermanent(err))
}

func TestReportsHandlerFailedPersistDoesNotAnnounce(t *testing.T) {
	ctrl := gomock.NewController(t)
	analyzer := service_mocks.NewMockMarketAnalyzer(ctrl)
	store, alerts, metrics := &fakeStore{err: errors.New("clickhouse down")}, &fakeAlerts{}, newCountingMetrics()
	checker := NewPriceChecker(analyzer, store, &fakePublisher{}, alerts, nil, metrics,
		PriceCheckerConfig{Timeout: time.Second}, nil)
	h := NewReportsHandler("price_reports", checker, nil)
	analyzer.EXPECT().Analyze(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(onionOkhla, nil)

	err := h.Handle(context.Background(), []byte(`{"report_id":"r","month":10,"commodity_name":"Onion","market_name":"Okhla","price":45}`))
	require.Error(t, err)
	assert.False(t, pkgkafka.IsPermanent(err))
	assert.Empty(t, alerts.got, "a redelivered report must not alert twice")
	assert.Zero(t, metrics.verdicts[models.ReasonTransport])
}

func TestReportsHandlerQueuesOnlyFailedSink(t *testing.T) {
	ctrl := gomock.NewController(t)
	analyzer := service_mocks.NewMockMarketAnalyzer(ctrl)
	store, pub, alerts := &fakeStore{err: errors.New("clickhouse down")}, &fakePublisher{}, &fakeAlerts{}
	checker := NewPriceChecker(analyzer, store, pub, alerts, nil, newCountingMetrics(),
		PriceCheckerConfig{Timeout: time.Second}, nil)
	q := &sliceQueue{}
	checker.SetRetryQueue(q)
	h := NewReportsHandler("price_reports", checker, nil)
	analyzer.EXPECT().Analyze(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(onionOkhla, nil)

	err := h.Handle(context.Background(), []byte(`{"report_id":"r","month":10,"commodity_name":"Onion","market_name":"Okhla","price":45}`))
	require.NoError(t, err)
	assert.Len(t, pub.published, 1)
	require.Len(t, q.got, 1)
	assert.Equal(t, domrepo.SinkStore, q.got[0].sinks)
	assert.Len(t, alerts.got, 1)
}
