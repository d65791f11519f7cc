package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"stockwatch/internal/config"
	"stockwatch/internal/exporter"
	"stockwatch/internal/infrastructure"
	"stockwatch/internal/tabular"
	"stockwatch/internal/vision"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		imagePath string
		apiKey    string
		outCSV    string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:           "extract",
		Short:         "Reconstruct holdings records from a brokerage screenshot",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if imagePath == "" {
				return fmt.Errorf("missing --image")
			}
			if apiKey == "" {
				apiKey = strings.TrimSpace(os.Getenv("STOCKWATCH_VISION_API_KEY"))
			}
			if apiKey == "" {
				return fmt.Errorf("missing api key: set --api-key or env STOCKWATCH_VISION_API_KEY")
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}

			logger, err := infrastructure.InitializeLogger(cfg.Logging)
			if err != nil {
				return fmt.Errorf("initialize logger: %w", err)
			}

			ctx := context.Background()

			client, err := vision.NewClient(ctx, apiKey, nil, logger,
				vision.WithMonthlyQuota(cfg.Vision.MonthlyQuota))
			if err != nil {
				return fmt.Errorf("initialize vision client: %w", err)
			}

			data, err := os.ReadFile(imagePath)
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}

			original, enhanced, err := vision.DecodeAndEnhance(data)
			if err != nil {
				return fmt.Errorf("decode image: %w", err)
			}

			annotations, err := client.Detect(ctx, enhanced)
			if err != nil {
				return fmt.Errorf("detect text: %w", err)
			}

			records := tabular.Extract(annotations, original,
				tabular.WithRowTolerance(cfg.Extract.RowTolerance),
				tabular.WithHeaderScanLimit(cfg.Extract.HeaderScanLimit),
				tabular.WithColorPixelThreshold(cfg.Extract.ColorPixelThreshold),
			)
			if len(records) == 0 {
				return fmt.Errorf("no holdings rows reconstructed from %s", imagePath)
			}

			if outCSV != "" {
				reporter := exporter.NewReporter(config.DefaultReportsDir, logger)
				path, err := reporter.ExportHoldingsCSV(outCSV, records)
				if err != nil {
					return fmt.Errorf("write csv: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-8s %-12s %10s %10s %10s\n",
				"symbol", "name", "quantity", "avg_price", "profit")
			for _, rec := range records {
				fmt.Fprintf(w, "%-8s %-12s %10d %10.2f %10d\n",
					rec.Symbol, rec.Name, rec.Quantity, rec.AvgPrice, rec.Profit)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&imagePath, "image", "", "Path to the holdings screenshot")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Vision API key (falls back to STOCKWATCH_VISION_API_KEY)")
	cmd.Flags().StringVar(&outCSV, "out", "", "Write records to this CSV file instead of stdout")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print records as JSON")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", config.AppName, config.AppVersion)
		},
	})

	return cmd
}
