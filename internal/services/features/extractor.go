package features

import (
	"math"

	"MandiPulse/internal/domain/models"
)

// MandiVector builds the benchmark regressor input (month, commodity, market).
func MandiVector(month int, c models.Commodity, m models.Market) models.FeatureVector {
	return models.FeatureVector{float64(month), float64(c), float64(m)}
}

// PriceVector extends the mandi input with the predicted benchmark.
func PriceVector(month int, c models.Commodity, m models.Market, mandi float64) models.FeatureVector {
	return models.FeatureVector{float64(month), float64(c), float64(m), mandi}
}

// FullVector is the input shared by the outlier detector and both classifiers.
func FullVector(month int, c models.Commodity, m models.Market, mandi, actual float64) models.FeatureVector {
	return models.FeatureVector{float64(month), float64(c), float64(m), mandi, actual}
}

// FromRow builds the three training vectors of a history row.
func FromRow(r models.HistoryRow) (mandi, price, full models.FeatureVector) {
	mandi = MandiVector(r.Month, r.Commodity, r.Market)
	price = PriceVector(r.Month, r.Commodity, r.Market, r.MandiAvg)
	full = FullVector(r.Month, r.Commodity, r.Market, r.MandiAvg, r.ObservedPrice)
	return mandi, price, full
}

// Finite reports whether every feature is a finite number.
func Finite(v models.FeatureVector) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// PriceRatio returns actual/expected. ok is false when expected is zero or
// any operand is not finite.
func PriceRatio(actual, expected float64) (ratio float64, ok bool) {
	if expected == 0 || math.IsNaN(expected) || math.IsInf(expected, 0) || math.IsNaN(actual) || math.IsInf(actual, 0) {
		return 0, false
	}
	return actual / expected, true
}
