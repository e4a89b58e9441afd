package analytics

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"MandiPulse/internal/domain/models"
	domsvc "MandiPulse/internal/domain/service"
	"MandiPulse/internal/services/features"
)

var (
	ErrInference               = errors.New("inference failed")
	ErrDegenerateExpectedPrice = errors.New("expected price is zero or not finite")
	ErrIncompletePredictors    = errors.New("predictor set is incomplete")
)

// AnomalyRatioThreshold is the actual/expected ratio above which a price is
// anomalous regardless of the outlier detector.
const AnomalyRatioThreshold = 1.3

// minExpectedPrice is the smallest expected price that does not round to 0.00.
const minExpectedPrice = 0.005

// Engine runs the five predictors in a fixed order and applies the decision
// rule. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	p domsvc.PredictorSet
}

var _ domsvc.MarketAnalyzer = (*Engine)(nil)

func NewEngine(p domsvc.PredictorSet) (*Engine, error) {
	if !p.Complete() {
		return nil, ErrIncompletePredictors
	}
	return &Engine{p: p}, nil
}

// Analyze estimates the benchmark and expected price for the given month,
// commodity and market and classifies actualPrice against them. Vocabulary
// membership is the caller's responsibility.
func (e *Engine) Analyze(month int, commodity models.Commodity, market models.Market, actualPrice float64) (models.AnalysisResult, error) {
	if !finite(actualPrice) {
		return models.AnalysisResult{}, fmt.Errorf("%w: actual price %v", ErrInference, actualPrice)
	}

	mandi, err := e.p.Mandi.Regress(features.MandiVector(month, commodity, market))
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("%w: mandi regressor: %w", ErrInference, err)
	}
	if !finite(mandi) {
		return models.AnalysisResult{}, fmt.Errorf("%w: mandi regressor returned %v", ErrInference, mandi)
	}

	expected, err := e.p.Price.Regress(features.PriceVector(month, commodity, market, mandi))
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("%w: price regressor: %w", ErrInference, err)
	}
	ratio, ok := features.PriceRatio(actualPrice, expected)
	if !ok || math.Abs(expected) < minExpectedPrice {
		return models.AnalysisResult{}, fmt.Errorf("%w: %v", ErrDegenerateExpectedPrice, expected)
	}

	full := features.FullVector(month, commodity, market, mandi, actualPrice)
	verdict, err := e.p.Outlier.Score(full)
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("%w: outlier detector: %w", ErrInference, err)
	}

	anomalous := verdict == models.Outlier || ratio > AnomalyRatioThreshold
	reason := models.ReasonConsistent
	if anomalous {
		if reason, err = e.attribute(full); err != nil {
			return models.AnalysisResult{}, err
		}
	}

	return models.AnalysisResult{
		MandiBenchmark: round(mandi, 2).InexactFloat64(),
		ExpectedPrice:  round(expected, 2).InexactFloat64(),
		IsAnomaly:      anomalous,
		Reason:         reason,
		Deviation:      FormatDeviation(ratio),
	}, nil
}

// attribute picks the first cause in priority order. When both classifiers
// would fire only transport is reported.
func (e *Engine) attribute(full models.FeatureVector) (models.Reason, error) {
	transport, err := e.p.Transport.Classify(full)
	if err != nil {
		return "", fmt.Errorf("%w: transport classifier: %w", ErrInference, err)
	}
	if transport {
		return models.ReasonTransport, nil
	}
	weather, err := e.p.Weather.Classify(full)
	if err != nil {
		return "", fmt.Errorf("%w: weather classifier: %w", ErrInference, err)
	}
	if weather {
		return models.ReasonWeather, nil
	}
	return models.ReasonHoarding, nil
}

// FormatDeviation renders (ratio-1)*100 with one decimal and a trailing "%".
// A small negative deviation keeps its sign: "-0.0%".
func FormatDeviation(ratio float64) string {
	pct := (ratio - 1) * 100
	d := round(pct, 1)
	if d.IsZero() && pct < 0 {
		return "-" + d.StringFixed(1) + "%"
	}
	return d.StringFixed(1) + "%"
}

// round applies round-half-even to the exact binary value of v, so 2.675
// (stored as 2.67499...) rounds down and 40.625 rounds to 40.6.
func round(v float64, places int32) decimal.Decimal {
	return decimal.RequireFromString(strconv.FormatFloat(v, 'f', 64, 64)).RoundBank(places)
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
