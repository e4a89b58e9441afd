package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"MandiPulse/internal/domain/models"
	"MandiPulse/internal/services/analytics"
	"MandiPulse/internal/usecase"
	pkghttp "MandiPulse/pkg/http"
)

var (
	checkMonth     int
	checkCommodity string
	checkMarket    string
	checkPrice     float64
	checkModels    string
)

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().IntVar(&checkMonth, "month", 0, "month 1-12 (required)")
	checkCmd.Flags().StringVar(&checkCommodity, "commodity", "", "commodity name (required)")
	checkCmd.Flags().StringVar(&checkMarket, "market", "", "market name (required)")
	checkCmd.Flags().Float64Var(&checkPrice, "price", 0, "observed retail price (required)")
	checkCmd.Flags().StringVar(&checkModels, "models", "models", "model directory (store=file)")
	for _, name := range []string{"month", "commodity", "market", "price"} {
		_ = checkCmd.MarkFlagRequired(name)
	}
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one price check against trained models",
	RunE: func(cmd *cobra.Command, args []string) error {
		req := models.PriceCheckRequest{
			Month:         checkMonth,
			CommodityName: checkCommodity,
			MarketName:    checkMarket,
			ActualPrice:   checkPrice,
		}
		check, err := resolveCheck(cmd.Context(), req)
		if err != nil {
			return err
		}

		store, err := openStore(cmd.Context(), checkModels)
		if err != nil {
			return err
		}
		set, err := analytics.LoadPredictorSet(cmd.Context(), store)
		if err != nil {
			return err
		}
		engine, err := analytics.NewEngine(set)
		if err != nil {
			return err
		}

		res, err := engine.Analyze(check.Month, check.Commodity, check.Market, check.ActualPrice)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(models.PriceCheckResponse{AnalysisResult: res, Input: req})
	},
}

// resolveCheck applies the same request rules as the HTTP API.
func resolveCheck(ctx context.Context, req models.PriceCheckRequest) (models.PriceCheck, error) {
	if errs := pkghttp.ValidateStruct(ctx, &req); len(errs) > 0 {
		return models.PriceCheck{}, fmt.Errorf("invalid check: %w", pkghttp.ValidationErrors(errs))
	}
	return usecase.Resolve(req.Month, req.CommodityName, req.MarketName, req.ActualPrice)
}
