package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	domrepo "MandiPulse/internal/domain/repository"
	internalrepo "MandiPulse/internal/repository"
	applogger "MandiPulse/pkg/logger"
)

var (
	storeKind  string
	s3Bucket   string
	s3Prefix   string
	s3Region   string
	s3Endpoint string
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "trainer",
	Short: "Train and inspect MandiPulse price models",
	Long: `trainer fits the five MandiPulse predictors from a labelled price history,
writes them to a model directory or S3 bucket, and can run one offline price
check against the written artifacts.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", "file", "model store: file or s3")
	rootCmd.PersistentFlags().StringVar(&s3Bucket, "bucket", "", "S3 bucket (store=s3)")
	rootCmd.PersistentFlags().StringVar(&s3Prefix, "prefix", "models/", "S3 key prefix (store=s3)")
	rootCmd.PersistentFlags().StringVar(&s3Region, "region", "ap-south-1", "S3 region (store=s3)")
	rootCmd.PersistentFlags().StringVar(&s3Endpoint, "endpoint", "", "S3-compatible endpoint override")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level")
}

func newLogger() (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{Level: logLevel, Format: "console", Output: "stderr"})
}

// openStore resolves the artifact store for dir, or the configured bucket.
func openStore(ctx context.Context, dir string) (domrepo.ModelStore, error) {
	switch storeKind {
	case "file":
		return internalrepo.NewFileModelStore(dir), nil
	case "s3":
		if s3Bucket == "" {
			return nil, fmt.Errorf("--bucket is required for the s3 store")
		}
		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		return internalrepo.NewS3ModelStore(ctx, internalrepo.S3Config{
			Bucket:   s3Bucket,
			Prefix:   s3Prefix,
			Region:   s3Region,
			Endpoint: s3Endpoint,
		})
	default:
		return nil, fmt.Errorf("unknown store %q", storeKind)
	}
}
