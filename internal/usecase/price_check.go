package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"MandiPulse/internal/domain/models"
	domrepo "MandiPulse/internal/domain/repository"
	domsvc "MandiPulse/internal/domain/service"
	"MandiPulse/internal/service/cache"
	"MandiPulse/internal/services/analytics"
	applogger "MandiPulse/pkg/logger"
	pkgmetrics "MandiPulse/pkg/metrics"
)

// reportNamespace derives stable verdict IDs from report IDs, so a
// redelivered report produces the same verdict ID.
var reportNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:mandipulse:price-report"))

// PriceCheckerConfig bounds a single analysis.
type PriceCheckerConfig struct {
	Timeout  time.Duration
	CacheTTL time.Duration
}

// RetryQueue takes verdicts whose first write failed, with the sinks that
// still need them.
type RetryQueue interface {
	Enqueue(v models.PriceVerdict, sinks domrepo.Sinks) bool
}

// PriceChecker resolves names, runs the analyzer and records the verdict.
// Store, publisher, alert sink and cache are optional.
type PriceChecker struct {
	analyzer domsvc.MarketAnalyzer
	store    domrepo.AnalysisStore
	pub      domrepo.VerdictPublisher
	alerts   domrepo.AlertSink
	cache    cache.BytesCache
	metrics  domrepo.Metrics
	cfg      PriceCheckerConfig
	retry    RetryQueue
	l        *applogger.Logger
	now      func() time.Time
}

func NewPriceChecker(
	analyzer domsvc.MarketAnalyzer,
	store domrepo.AnalysisStore,
	pub domrepo.VerdictPublisher,
	alerts domrepo.AlertSink,
	c cache.BytesCache,
	metrics domrepo.Metrics,
	cfg PriceCheckerConfig,
	l *applogger.Logger,
) *PriceChecker {
	if l == nil {
		l = applogger.NewNop()
	}
	if metrics == nil {
		metrics = pkgmetrics.Nop{}
	}
	return &PriceChecker{
		analyzer: analyzer,
		store:    store,
		pub:      pub,
		alerts:   alerts,
		cache:    c,
		metrics:  metrics,
		cfg:      cfg,
		l:        l,
		now:      time.Now,
	}
}

// SetRetryQueue routes failed HTTP-path writes to q.
func (p *PriceChecker) SetRetryQueue(q RetryQueue) { p.retry = q }

// Resolve maps request names onto the closed vocabularies.
func Resolve(month int, commodityName, marketName string, price float64) (models.PriceCheck, error) {
	commodity, err := models.ParseCommodity(commodityName)
	if err != nil {
		return models.PriceCheck{}, err
	}
	market, err := models.ParseMarket(marketName)
	if err != nil {
		return models.PriceCheck{}, err
	}
	return models.PriceCheck{Month: month, Commodity: commodity, Market: market, ActualPrice: price}, nil
}

// Check serves one HTTP price check. Recording failures are logged; they do
// not fail the request.
func (p *PriceChecker) Check(ctx context.Context, req models.PriceCheckRequest) (models.AnalysisResult, error) {
	check, err := Resolve(req.Month, req.CommodityName, req.MarketName, req.ActualPrice)
	if err != nil {
		p.metrics.RecordError(ErrorKind(err))
		return models.AnalysisResult{}, err
	}
	res, err := p.Evaluate(ctx, check)
	if err != nil {
		return models.AnalysisResult{}, err
	}
	v := p.NewVerdict(check, res, models.SourceHTTP, "")
	if err := p.Record(ctx, &v); err != nil {
		p.l.Warn("pricecheck.record error", applogger.String("id", v.ID), applogger.Error(err))
		p.announce(&v)
	}
	return res, nil
}

// Evaluate runs the analyzer under the configured deadline, consulting the
// result cache first.
func (p *PriceChecker) Evaluate(ctx context.Context, check models.PriceCheck) (models.AnalysisResult, error) {
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		p.metrics.RecordError(ErrorKind(err))
		return models.AnalysisResult{}, err
	}

	key := cacheKey(check)
	if res, ok := p.cached(ctx, key); ok {
		return res, nil
	}

	start := p.now()
	type outcome struct {
		res models.AnalysisResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := p.analyzer.Analyze(check.Month, check.Commodity, check.Market, check.ActualPrice)
		done <- outcome{res, err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-ctx.Done():
		p.metrics.RecordError(ErrorKind(ctx.Err()))
		return models.AnalysisResult{}, ctx.Err()
	}
	p.metrics.RecordLatency("analyze", p.now().Sub(start).Seconds())

	if out.err != nil {
		p.metrics.RecordError(ErrorKind(out.err))
		p.l.Error("pricecheck.analyze error",
			applogger.Int("month", check.Month),
			applogger.String("commodity", check.Commodity.String()),
			applogger.String("market", check.Market.String()),
			applogger.Float64("actual_price", check.ActualPrice),
			applogger.Error(out.err),
		)
		return models.AnalysisResult{}, out.err
	}

	p.fill(ctx, key, out.res)
	return out.res, nil
}

// NewVerdict stamps an analysis result with identity and status.
func (p *PriceChecker) NewVerdict(check models.PriceCheck, res models.AnalysisResult, source, reportID string) models.PriceVerdict {
	id := uuid.NewString()
	if reportID != "" {
		id = uuid.NewSHA1(reportNamespace, []byte(reportID)).String()
	}
	return models.PriceVerdict{
		ID:             id,
		ReportID:       reportID,
		Source:         source,
		Month:          check.Month,
		Commodity:      check.Commodity.String(),
		Market:         check.Market.String(),
		ActualPrice:    check.ActualPrice,
		MandiBenchmark: res.MandiBenchmark,
		ExpectedPrice:  res.ExpectedPrice,
		IsAnomaly:      res.IsAnomaly,
		Reason:         res.Reason,
		Deviation:      res.Deviation,
		Status:         models.StatusFor(res),
		CreatedAt:      p.now().UTC(),
	}
}

// Record persists v, then counts it and broadcasts it when anomalous. Sinks
// that failed are handed to the retry queue; an error is returned only when
// they could not be queued, and then v is neither counted nor broadcast.
func (p *PriceChecker) Record(ctx context.Context, v *models.PriceVerdict) error {
	failed, err := p.Persist(ctx, v, domrepo.AllSinks)
	if err != nil && !p.requeue(v, failed, err) {
		return err
	}
	p.announce(v)
	return nil
}

// Persist writes v to the requested sinks and reports the ones that failed.
// Every requested sink is attempted even if an earlier one fails.
func (p *PriceChecker) Persist(ctx context.Context, v *models.PriceVerdict, sinks domrepo.Sinks) (domrepo.Sinks, error) {
	var (
		failed domrepo.Sinks
		errs   []error
	)
	if p.store != nil && sinks.Has(domrepo.SinkStore) {
		start := p.now()
		if err := p.store.Store(ctx, v); err != nil {
			p.metrics.RecordError("store")
			failed |= domrepo.SinkStore
			errs = append(errs, err)
		}
		p.metrics.RecordLatency("store", p.now().Sub(start).Seconds())
	}
	if p.pub != nil && sinks.Has(domrepo.SinkPublisher) {
		if err := p.pub.Publish(ctx, v); err != nil {
			p.metrics.RecordError("publish")
			failed |= domrepo.SinkPublisher
			errs = append(errs, fmt.Errorf("publish verdict: %w", err))
		}
	}
	return failed, errors.Join(errs...)
}

func (p *PriceChecker) requeue(v *models.PriceVerdict, failed domrepo.Sinks, cause error) bool {
	if p.retry == nil || failed == 0 || !p.retry.Enqueue(*v, failed) {
		return false
	}
	p.l.Warn("pricecheck.persist queued",
		applogger.String("id", v.ID),
		applogger.Int("sinks", int(failed)),
		applogger.Error(cause),
	)
	return true
}

func (p *PriceChecker) announce(v *models.PriceVerdict) {
	p.metrics.RecordVerdict(v.Reason, v.IsAnomaly)
	if v.IsAnomaly && p.alerts != nil {
		p.alerts.Broadcast(*v)
	}
}

func cacheKey(c models.PriceCheck) string {
	return "analysis:" + strconv.Itoa(c.Month) + ":" + strconv.Itoa(int(c.Commodity)) + ":" +
		strconv.Itoa(int(c.Market)) + ":" + strconv.FormatFloat(c.ActualPrice, 'g', -1, 64)
}

func (p *PriceChecker) cached(ctx context.Context, key string) (models.AnalysisResult, bool) {
	var res models.AnalysisResult
	if p.cache == nil {
		return res, false
	}
	b, ok, err := p.cache.GetBytes(ctx, key)
	if err != nil {
		p.l.Warn("pricecheck.cache get error", applogger.String("key", key), applogger.Error(err))
		return res, false
	}
	if !ok {
		return res, false
	}
	if err := msgpack.Unmarshal(b, &res); err != nil {
		return res, false
	}
	return res, true
}

func (p *PriceChecker) fill(ctx context.Context, key string, res models.AnalysisResult) {
	if p.cache == nil || p.cfg.CacheTTL <= 0 {
		return
	}
	b, err := msgpack.Marshal(&res)
	if err != nil {
		return
	}
	if err := p.cache.SetBytes(ctx, key, b, p.cfg.CacheTTL); err != nil {
		p.l.Warn("pricecheck.cache set error", applogger.String("key", key), applogger.Error(err))
	}
}

// ErrorKind buckets an analysis error for metrics.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, models.ErrInvalidVocabulary):
		return "vocabulary"
	case errors.Is(err, analytics.ErrDegenerateExpectedPrice):
		return "degenerate"
	case errors.Is(err, analytics.ErrInference):
		return "inference"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "internal"
	}
}
