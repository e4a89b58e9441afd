package models

// HistoryRow is one labelled training observation.
type HistoryRow struct {
	Month          int
	Commodity      Commodity
	Market         Market
	MandiAvg       float64
	ObservedPrice  float64
	IsAnomaly      bool
	TransportIssue bool
	WeatherImpact  bool
}
