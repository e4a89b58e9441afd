package analytics

import (
	"context"
	"fmt"
	"io"

	"MandiPulse/internal/domain/models"
	"MandiPulse/internal/domain/repository"
	domsvc "MandiPulse/internal/domain/service"
	"MandiPulse/internal/services/mlmodel"
)

// Artifact names inside a model store.
const (
	MandiRegressorFile      = "mandi_regressor.msgpack"
	PriceRegressorFile      = "price_regressor.msgpack"
	IsolationForestFile     = "isolation_forest.msgpack"
	TransportClassifierFile = "transport_classifier.msgpack"
	WeatherClassifierFile   = "weather_classifier.msgpack"
)

// ArtifactFiles lists every artifact LoadPredictorSet needs.
var ArtifactFiles = []string{
	MandiRegressorFile,
	PriceRegressorFile,
	IsolationForestFile,
	TransportClassifierFile,
	WeatherClassifierFile,
}

func openModel[T any](ctx context.Context, store repository.ModelStore, name string, decode func(io.Reader) (T, error)) (T, error) {
	var zero T
	rc, err := store.Open(ctx, name)
	if err != nil {
		return zero, fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()
	m, err := decode(rc)
	if err != nil {
		return zero, fmt.Errorf("decode %s: %w", name, err)
	}
	return m, nil
}

func loadForest(ctx context.Context, store repository.ModelStore, name string, kind mlmodel.Kind, arity int) (*mlmodel.Forest, error) {
	f, err := openModel(ctx, store, name, func(r io.Reader) (*mlmodel.Forest, error) {
		return mlmodel.DecodeForest(r, kind)
	})
	if err != nil {
		return nil, err
	}
	if f.NumFeatures != arity {
		return nil, fmt.Errorf("%s: %w: trained on %d features, want %d", name, mlmodel.ErrFeatureArity, f.NumFeatures, arity)
	}
	return f, nil
}

// LoadPredictorSet decodes all five artifacts and checks each one was trained
// on the feature shape the engine will feed it.
func LoadPredictorSet(ctx context.Context, store repository.ModelStore) (domsvc.PredictorSet, error) {
	var set domsvc.PredictorSet

	mandi, err := loadForest(ctx, store, MandiRegressorFile, mlmodel.KindRegressor, models.MandiFeatureCount)
	if err != nil {
		return set, err
	}
	price, err := loadForest(ctx, store, PriceRegressorFile, mlmodel.KindRegressor, models.PriceFeatureCount)
	if err != nil {
		return set, err
	}
	iso, err := openModel(ctx, store, IsolationForestFile, mlmodel.DecodeIsolationForest)
	if err != nil {
		return set, err
	}
	if iso.NumFeatures != models.FullFeatureCount {
		return set, fmt.Errorf("%s: %w: trained on %d features, want %d", IsolationForestFile, mlmodel.ErrFeatureArity, iso.NumFeatures, models.FullFeatureCount)
	}
	transport, err := loadForest(ctx, store, TransportClassifierFile, mlmodel.KindClassifier, models.FullFeatureCount)
	if err != nil {
		return set, err
	}
	weather, err := loadForest(ctx, store, WeatherClassifierFile, mlmodel.KindClassifier, models.FullFeatureCount)
	if err != nil {
		return set, err
	}

	return domsvc.PredictorSet{
		Mandi:     mandi,
		Price:     price,
		Outlier:   iso,
		Transport: transport,
		Weather:   weather,
	}, nil
}
