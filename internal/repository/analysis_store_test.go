package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MandiPulse/internal/domain/models"
	pkgch "MandiPulse/pkg/clickhouse"
)

func newMockStore(t *testing.T) (*CHAnalysisStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewCHAnalysisStore(pkgch.NewClientFromDB(db, "mandipulse"), nil), mock
}

func sampleVerdict() *models.PriceVerdict {
	return &models.PriceVerdict{
		ID:             "3f1c",
		Source:         models.SourceHTTP,
		Month:          10,
		Commodity:      "Onion",
		Market:         "Okhla",
		ActualPrice:    45,
		MandiBenchmark: 30,
		ExpectedPrice:  32,
		IsAnomaly:      true,
		Reason:         models.ReasonTransport,
		Deviation:      "40.6%",
		Status:         models.StatusFlagged,
		CreatedAt:      time.Date(2024, 10, 3, 8, 0, 0, 0, time.UTC),
	}
}

func TestInitCreatesDatabaseAndTable(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE DATABASE IF NOT EXISTS mandipulse")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS mandipulse.price_verdicts")).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.Init(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreInsertsEveryColumn(t *testing.T) {
	s, mock := newMockStore(t)
	v := sampleVerdict()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO mandipulse.price_verdicts (" + verdictColumns + ")")).
		WithArgs(v.ID, "", "http", 10, "Onion", "Okhla", 45.0, 30.0, 32.0, true,
			string(models.ReasonTransport), "40.6%", "flagged", v.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Store(context.Background(), v))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreWrapsError(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO").WillReturnError(errors.New("too many parts"))

	err := s.Store(context.Background(), sampleVerdict())
	assert.ErrorContains(t, err, "store verdict")
}

func verdictRows(vs ...*models.PriceVerdict) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "report_id", "source", "month", "commodity", "market",
		"actual_price", "mandi_benchmark", "expected_price", "is_anomaly", "reason", "deviation", "status", "created_at"})
	for _, v := range vs {
		rows.AddRow(v.ID, v.ReportID, v.Source, int64(v.Month), v.Commodity, v.Market,
			v.ActualPrice, v.MandiBenchmark, v.ExpectedPrice, v.IsAnomaly,
			string(v.Reason), v.Deviation, string(v.Status), v.CreatedAt)
	}
	return rows
}

func TestRecentAnomaliesFiltersByMarket(t *testing.T) {
	s, mock := newMockStore(t)
	v := sampleVerdict()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE is_anomaly = 1 AND market = ? ORDER BY created_at DESC LIMIT ?")).
		WithArgs("Okhla", 10).
		WillReturnRows(verdictRows(v))

	out, err := s.RecentAnomalies(context.Background(), "Okhla", 10)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, *v, out[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentAnomaliesAllMarketsDefaultLimit(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE is_anomaly = 1 ORDER BY created_at DESC LIMIT ?")).
		WithArgs(50).
		WillReturnRows(verdictRows())

	out, err := s.RecentAnomalies(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentAnomaliesQueryError(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT").WillReturnError(errors.New("connection reset"))

	_, err := s.RecentAnomalies(context.Background(), "Okhla", 5)
	assert.ErrorContains(t, err, "recent anomalies")
}
