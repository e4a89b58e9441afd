package models

import "time"

// Reason explains why a price was (or was not) flagged.
type Reason string

const (
	ReasonConsistent Reason = "Consistent Market Price"
	ReasonTransport  Reason = "Transport/Supply Chain Disruption"
	ReasonWeather    Reason = "Severe Weather Impact"
	ReasonHoarding   Reason = "Potential Market Hoarding"
)

// OutlierVerdict is the binary output of the outlier detector.
type OutlierVerdict int

const (
	Normal OutlierVerdict = iota
	Outlier
)

func (v OutlierVerdict) String() string {
	if v == Outlier {
		return "outlier"
	}
	return "normal"
}

// AnalysisResult is the engine output. Prices are rounded to 2 decimals and
// Deviation is a signed percentage with one decimal, e.g. "40.6%".
type AnalysisResult struct {
	MandiBenchmark float64 `json:"mandi_benchmark" msgpack:"mandi_benchmark"`
	ExpectedPrice  float64 `json:"expected_price" msgpack:"expected_price"`
	IsAnomaly      bool    `json:"is_anomaly" msgpack:"is_anomaly"`
	Reason         Reason  `json:"reason" msgpack:"reason"`
	Deviation      string  `json:"deviation" msgpack:"deviation"`
}

// PriceCheck is a validated analysis input.
type PriceCheck struct {
	Month       int
	Commodity   Commodity
	Market      Market
	ActualPrice float64
}

// VerdictStatus mirrors the moderation status of a citizen price report.
type VerdictStatus string

const (
	StatusVerified VerdictStatus = "verified"
	StatusFlagged  VerdictStatus = "flagged"
)

// Verdict sources.
const (
	SourceHTTP   = "http"
	SourceReport = "report"
)

// PriceVerdict is one recorded analysis, published to Kafka and stored in ClickHouse.
type PriceVerdict struct {
	ID             string        `json:"id"`
	ReportID       string        `json:"report_id,omitempty"`
	Source         string        `json:"source"`
	Month          int           `json:"month"`
	Commodity      string        `json:"commodity_name"`
	Market         string        `json:"market_name"`
	ActualPrice    float64       `json:"actual_price"`
	MandiBenchmark float64       `json:"mandi_benchmark"`
	ExpectedPrice  float64       `json:"expected_price"`
	IsAnomaly      bool          `json:"is_anomaly"`
	Reason         Reason        `json:"reason"`
	Deviation      string        `json:"deviation"`
	Status         VerdictStatus `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
}

// StatusFor maps an analysis outcome to the report status.
func StatusFor(r AnalysisResult) VerdictStatus {
	if r.IsAnomaly {
		return StatusFlagged
	}
	return StatusVerified
}
