package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"MandiPulse/internal/domain/models"
	domrepo "MandiPulse/internal/domain/repository"
	pkgch "MandiPulse/pkg/clickhouse"
	applogger "MandiPulse/pkg/logger"
)

const verdictsTable = "price_verdicts"

const verdictColumns = "id, report_id, source, month, commodity, market, actual_price, mandi_benchmark, expected_price, is_anomaly, reason, deviation, status, created_at"

// CHAnalysisStore implements AnalysisStore backed by ClickHouse.
type CHAnalysisStore struct {
	db       *sql.DB
	database string
	l        *applogger.Logger
}

var _ domrepo.AnalysisStore = (*CHAnalysisStore)(nil)

func NewCHAnalysisStore(ch *pkgch.Client, l *applogger.Logger) *CHAnalysisStore {
	if l == nil {
		l = applogger.NewNop()
	}
	return &CHAnalysisStore{db: ch.DB(), database: ch.Database(), l: l}
}

func (s *CHAnalysisStore) table() string {
	return s.database + "." + verdictsTable
}

// SchemaStatements returns the idempotent DDL for the verdicts table.
func SchemaStatements(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
	id String,
	report_id String,
	source LowCardinality(String),
	month UInt8,
	commodity LowCardinality(String),
	market LowCardinality(String),
	actual_price Float64,
	mandi_benchmark Float64,
	expected_price Float64,
	is_anomaly Bool,
	reason LowCardinality(String),
	deviation String,
	status LowCardinality(String),
	created_at DateTime64(3, 'UTC')
) ENGINE = ReplacingMergeTree
PARTITION BY toYYYYMM(created_at)
ORDER BY (market, commodity, created_at, id)`, database, verdictsTable),
	}
}

func (s *CHAnalysisStore) Init(ctx context.Context) error {
	for i, stmt := range SchemaStatements(s.database) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init verdicts schema (statement %d): %w", i+1, err)
		}
	}
	return nil
}

func (s *CHAnalysisStore) Store(ctx context.Context, v *models.PriceVerdict) error {
	start := time.Now()
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", s.table(), verdictColumns)
	_, err := s.db.ExecContext(ctx, q,
		v.ID,
		v.ReportID,
		v.Source,
		v.Month,
		v.Commodity,
		v.Market,
		v.ActualPrice,
		v.MandiBenchmark,
		v.ExpectedPrice,
		v.IsAnomaly,
		string(v.Reason),
		v.Deviation,
		string(v.Status),
		v.CreatedAt.UTC(),
	)
	if err != nil {
		s.l.Error("clickhouse store_verdict error",
			applogger.String("id", v.ID),
			applogger.String("market", v.Market),
			applogger.Error(err),
		)
		return fmt.Errorf("store verdict: %w", err)
	}
	s.l.Debug("clickhouse store_verdict ok",
		applogger.String("id", v.ID),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

// RecentAnomalies returns anomalous verdicts, newest first. An empty market
// matches every market.
func (s *CHAnalysisStore) RecentAnomalies(ctx context.Context, market string, limit int) ([]models.PriceVerdict, error) {
	start := time.Now()
	if limit <= 0 {
		limit = 50
	}

	q := fmt.Sprintf("SELECT %s FROM %s WHERE is_anomaly = 1", verdictColumns, s.table())
	args := make([]interface{}, 0, 2)
	if market != "" {
		q += " AND market = ?"
		args = append(args, market)
	}
	q += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.l.Error("clickhouse recent_anomalies query error",
			applogger.String("market", market),
			applogger.Int("limit", limit),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("recent anomalies: %w", err)
	}
	defer rows.Close()

	out := make([]models.PriceVerdict, 0, limit)
	for rows.Next() {
		var (
			v              models.PriceVerdict
			month          uint8
			reason, status string
		)
		if err := rows.Scan(&v.ID, &v.ReportID, &v.Source, &month, &v.Commodity, &v.Market,
			&v.ActualPrice, &v.MandiBenchmark, &v.ExpectedPrice, &v.IsAnomaly,
			&reason, &v.Deviation, &status, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan verdict: %w", err)
		}
		v.Month = int(month)
		v.Reason = models.Reason(reason)
		v.Status = models.VerdictStatus(status)
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	s.l.Info("clickhouse recent_anomalies ok",
		applogger.String("market", market),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

func (s *CHAnalysisStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHAnalysisStore) Close() error {
	return nil // pool owned by pkg/clickhouse.Client
}
