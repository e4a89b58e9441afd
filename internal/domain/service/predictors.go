package service

import (
	"MandiPulse/internal/domain/models"
)

// Regressor predicts a continuous value from a feature vector.
type Regressor interface {
	Regress(x models.FeatureVector) (float64, error)
}

// Classifier predicts a binary label from a feature vector.
type Classifier interface {
	Classify(x models.FeatureVector) (bool, error)
}

// OutlierScorer decides whether a feature vector is an outlier.
type OutlierScorer interface {
	Score(x models.FeatureVector) (models.OutlierVerdict, error)
}

// PredictorSet bundles the five trained predictors the analyzer depends on.
// Implementations must be safe for concurrent use.
type PredictorSet struct {
	Mandi     Regressor     // month, commodity, market
	Price     Regressor     // + mandi benchmark
	Outlier   OutlierScorer // full vector
	Transport Classifier    // full vector
	Weather   Classifier    // full vector
}

// Complete reports whether every predictor is present.
func (p PredictorSet) Complete() bool {
	return p.Mandi != nil && p.Price != nil && p.Outlier != nil && p.Transport != nil && p.Weather != nil
}

// MarketAnalyzer estimates a fair price and classifies an observed price.
type MarketAnalyzer interface {
	Analyze(month int, commodity models.Commodity, market models.Market, actualPrice float64) (models.AnalysisResult, error)
}
