package service_mocks

//go:generate mockgen -source=../predictors.go -destination=predictors_mock.go -package=service_mocks

// This file contains the go:generate directive to generate mocks for predictor interfaces.
// To regenerate the mocks, run:
//   go generate ./internal/domain/service/service_mocks
