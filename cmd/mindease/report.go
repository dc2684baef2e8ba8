package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"mindease/internal/analytics"
	"mindease/internal/config"
	"mindease/internal/storage"
)

var (
	reportDate string
	reportJSON bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print usage stats for one day from the turn log",
	RunE: func(cmd *cobra.Command, args []string) error {
		day := time.Now().UTC().AddDate(0, 0, -1)
		if reportDate != "" {
			d, err := time.Parse("2006-01-02", reportDate)
			if err != nil {
				return fmt.Errorf("invalid --date %q: %w", reportDate, err)
			}
			day = d
		}

		cfg, err := config.Parse()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		rec, err := storage.Open(cfg)
		if err != nil {
			return fmt.Errorf("open recorder: %w", err)
		}
		if c, ok := rec.(io.Closer); ok {
			defer c.Close()
		}

		events, err := rec.LoadInteractions()
		if err != nil {
			return fmt.Errorf("load interactions: %w", err)
		}
		stats := analytics.AnalyzeDailyLogs(events, day)

		out := cmd.OutOrStdout()
		if reportJSON {
			js, err := stats.ToJSON()
			if err != nil {
				return err
			}
			fmt.Fprintln(out, js)
			return nil
		}
		fmt.Fprintln(out, stats.GenerateReportSummary())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVar(&reportDate, "date", "", "day to report, YYYY-MM-DD (default yesterday, UTC)")
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "print the stats as JSON")
}
