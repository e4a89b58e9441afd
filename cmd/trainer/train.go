package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"MandiPulse/internal/services/mlmodel"
	"MandiPulse/internal/services/training"
	applogger "MandiPulse/pkg/logger"
)

var (
	trainData          string
	trainOut           string
	trainTrees         int
	trainSeed          int64
	trainContamination float64
	trainMaxDepth      int
)

func init() {
	rootCmd.AddCommand(trainCmd)

	trainCmd.Flags().StringVar(&trainData, "data", "", "labelled history CSV (required)")
	trainCmd.Flags().StringVar(&trainOut, "out", "models", "output model directory (store=file)")
	trainCmd.Flags().IntVar(&trainTrees, "trees", 100, "trees per ensemble")
	trainCmd.Flags().Int64Var(&trainSeed, "seed", 42, "random seed")
	trainCmd.Flags().Float64Var(&trainContamination, "contamination", 0.1, "expected outlier share for the isolation forest")
	trainCmd.Flags().IntVar(&trainMaxDepth, "max-depth", 0, "maximum tree depth, 0 for the default")
	_ = trainCmd.MarkFlagRequired("data")
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Fit all five predictors from a history CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger()
		if err != nil {
			return err
		}

		f, err := os.Open(trainData)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer f.Close()

		rows, err := training.ReadHistory(f)
		if err != nil {
			return err
		}
		l.Info("history loaded", applogger.String("file", trainData), applogger.Int("rows", len(rows)))

		store, err := openStore(cmd.Context(), trainOut)
		if err != nil {
			return err
		}

		opts := []mlmodel.FitOption{
			mlmodel.WithTrees(trainTrees),
			mlmodel.WithSeed(trainSeed),
			mlmodel.WithContamination(trainContamination),
		}
		if trainMaxDepth > 0 {
			opts = append(opts, mlmodel.WithMaxDepth(trainMaxDepth))
		}

		report, err := training.NewTrainer(store, l, opts...).Train(cmd.Context(), rows)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}
