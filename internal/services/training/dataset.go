package training

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"MandiPulse/internal/domain/models"
)

var ErrBadDataset = errors.New("bad training dataset")

// Column names of the encoded history export. commodity and market may be
// given as names instead of IDs.
const (
	colMonth       = "month"
	colCommodityID = "commodity_id"
	colCommodity   = "commodity"
	colMarketID    = "market_id"
	colMarket      = "market"
	colMandiAvg    = "mandi_avg"
	colObserved    = "observed_price"
	colIsAnomaly   = "is_anomaly"
	colTransport   = "transport_issue"
	colWeather     = "weather_impact"
)

type columns map[string]int

func (c columns) get(rec []string, name string) (string, bool) {
	i, ok := c[name]
	if !ok || i >= len(rec) {
		return "", false
	}
	return strings.TrimSpace(rec[i]), true
}

// ReadHistory parses a CSV history export into training rows.
func ReadHistory(r io.Reader) ([]models.HistoryRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %w", ErrBadDataset, err)
	}
	cols := columns{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, need := range []string{colMonth, colMandiAvg, colObserved, colIsAnomaly, colTransport, colWeather} {
		if _, ok := cols[need]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrBadDataset, need)
		}
	}
	_, hasCID := cols[colCommodityID]
	_, hasCName := cols[colCommodity]
	_, hasMID := cols[colMarketID]
	_, hasMName := cols[colMarket]
	if !hasCID && !hasCName {
		return nil, fmt.Errorf("%w: missing column %q or %q", ErrBadDataset, colCommodityID, colCommodity)
	}
	if !hasMID && !hasMName {
		return nil, fmt.Errorf("%w: missing column %q or %q", ErrBadDataset, colMarketID, colMarket)
	}

	var rows []models.HistoryRow
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrBadDataset, line, err)
		}
		row, err := parseRow(cols, rec)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrBadDataset, line, err)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrBadDataset)
	}
	return rows, nil
}

func parseRow(cols columns, rec []string) (models.HistoryRow, error) {
	var (
		row models.HistoryRow
		err error
	)
	month, _ := cols.get(rec, colMonth)
	if row.Month, err = strconv.Atoi(month); err != nil || row.Month < 1 || row.Month > 12 {
		return row, fmt.Errorf("month %q", month)
	}
	if row.Commodity, err = parseCommodity(cols, rec); err != nil {
		return row, err
	}
	if row.Market, err = parseMarket(cols, rec); err != nil {
		return row, err
	}
	if row.MandiAvg, err = parseFloat(cols, rec, colMandiAvg); err != nil {
		return row, err
	}
	if row.ObservedPrice, err = parseFloat(cols, rec, colObserved); err != nil {
		return row, err
	}
	if row.IsAnomaly, err = parseFlag(cols, rec, colIsAnomaly); err != nil {
		return row, err
	}
	if row.TransportIssue, err = parseFlag(cols, rec, colTransport); err != nil {
		return row, err
	}
	if row.WeatherImpact, err = parseFlag(cols, rec, colWeather); err != nil {
		return row, err
	}
	return row, nil
}

func parseCommodity(cols columns, rec []string) (models.Commodity, error) {
	if v, ok := cols.get(rec, colCommodityID); ok && v != "" {
		id, err := strconv.Atoi(v)
		if err != nil || !models.Commodity(id).Valid() {
			return 0, fmt.Errorf("commodity_id %q", v)
		}
		return models.Commodity(id), nil
	}
	v, _ := cols.get(rec, colCommodity)
	return models.ParseCommodity(v)
}

func parseMarket(cols columns, rec []string) (models.Market, error) {
	if v, ok := cols.get(rec, colMarketID); ok && v != "" {
		id, err := strconv.Atoi(v)
		if err != nil || !models.Market(id).Valid() {
			return 0, fmt.Errorf("market_id %q", v)
		}
		return models.Market(id), nil
	}
	v, _ := cols.get(rec, colMarket)
	return models.ParseMarket(v)
}

func parseFloat(cols columns, rec []string, name string) (float64, error) {
	v, _ := cols.get(rec, name)
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s %q", name, v)
	}
	return f, nil
}

func parseFlag(cols columns, rec []string, name string) (bool, error) {
	v, _ := cols.get(rec, name)
	switch strings.ToLower(v) {
	case "1", "1.0", "true", "yes":
		return true, nil
	case "0", "0.0", "false", "no", "":
		return false, nil
	}
	return false, fmt.Errorf("%s %q", name, v)
}
