package models

// FeatureVector is an ordered list of numeric features fed to a predictor.
type FeatureVector []float64

// Feature arities of the three vector shapes.
const (
	MandiFeatureCount = 3 // month, commodity, market
	PriceFeatureCount = 4 // + mandi benchmark
	FullFeatureCount  = 5 // + actual price
)

// Feature column names in vector order, shared by the trainer and the engine.
var FullFeatureNames = []string{"month", "commodity_id", "market_id", "mandi_benchmark", "actual_price"}
