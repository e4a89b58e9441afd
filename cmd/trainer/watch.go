package main

import (
	"encoding/json"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"MandiPulse/internal/service/alerts"
	applogger "MandiPulse/pkg/logger"
)

var watchURL string

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchURL, "url", "ws://localhost:8000/ws/alerts", "alert stream URL")
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print live anomaly alerts from a running server",
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		c := alerts.NewClient(watchURL, 30*time.Second)
		if err := c.Connect(ctx); err != nil {
			return err
		}
		defer c.Close()
		l.Info("watching alerts", applogger.String("url", watchURL))

		verdicts, errs := c.Read(ctx)
		enc := json.NewEncoder(cmd.OutOrStdout())
		for {
			select {
			case <-ctx.Done():
				return nil
			case err, ok := <-errs:
				if ok && err != nil && ctx.Err() == nil {
					return err
				}
				if !ok {
					errs = nil
				}
			case v, ok := <-verdicts:
				if !ok {
					return nil
				}
				if err := enc.Encode(v); err != nil {
					return err
				}
			}
		}
	},
}
