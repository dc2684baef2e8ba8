package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"mindease/internal/analytics"
	"mindease/internal/storage"
)

// DailyReport returns a job that logs yesterday's usage stats
// from rec. now is injectable for tests.
func DailyReport(rec storage.Recorder, now func() time.Time) Job {
	if now == nil {
		now = time.Now
	}
	return func(ctx context.Context) error {
		events, err := rec.LoadInteractions()
		if err != nil {
			return fmt.Errorf("load interactions: %w", err)
		}
		day := now().UTC().AddDate(0, 0, -1)
		stats := analytics.AnalyzeDailyLogs(events, day)
		log.Printf("📊 %s", stats.GenerateReportSummary())
		return nil
	}
}
