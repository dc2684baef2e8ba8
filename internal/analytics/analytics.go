package analytics

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"mindease/internal/storage"
)

// DailyStats summarises one day of recorded turns.
type DailyStats struct {
	Date           string                  `json:"date"`
	TotalTurns     int                     `json:"total_turns"`
	FailedTurns    int                     `json:"failed_turns"`
	UniqueSessions int                     `json:"unique_sessions"`
	TotalTokens    int                     `json:"total_tokens"`
	TurnsBySurface map[string]int          `json:"turns_by_surface"`
	SessionStats   map[string]SessionStats `json:"session_stats"`
}

type SessionStats struct {
	SessionID   string `json:"session_id"`
	Turns       int    `json:"turns"`
	Failed      int    `json:"failed"`
	TotalTokens int    `json:"total_tokens"`
}

// AnalyzeDailyLogs aggregates the events that fall on targetDate.
func AnalyzeDailyLogs(events []storage.Event, targetDate time.Time) *DailyStats {
	startOfDay := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, targetDate.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	stats := &DailyStats{
		Date:           startOfDay.Format("2006-01-02"),
		TurnsBySurface: make(map[string]int),
		SessionStats:   make(map[string]SessionStats),
	}

	for _, event := range events {
		if event.Timestamp.Before(startOfDay) || !event.Timestamp.Before(endOfDay) {
			continue
		}

		stats.TotalTurns++
		stats.TotalTokens += event.TotalTokens
		surface := event.Surface
		if surface == "" {
			surface = "unknown"
		}
		stats.TurnsBySurface[surface]++

		ss, ok := stats.SessionStats[event.SessionID]
		if !ok {
			ss = SessionStats{SessionID: event.SessionID}
		}
		ss.Turns++
		ss.TotalTokens += event.TotalTokens
		if event.Error != "" {
			stats.FailedTurns++
			ss.Failed++
		}
		stats.SessionStats[event.SessionID] = ss
	}

	stats.UniqueSessions = len(stats.SessionStats)
	return stats
}

// GenerateReportSummary renders a short plain-text report.
func (ds *DailyStats) GenerateReportSummary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "MindEase usage for %s:\n\n", ds.Date)
	fmt.Fprintf(&b, "- Turns: %d (%d failed)\n", ds.TotalTurns, ds.FailedTurns)
	fmt.Fprintf(&b, "- Sessions: %d\n", ds.UniqueSessions)
	fmt.Fprintf(&b, "- Tokens: %d\n", ds.TotalTokens)

	if len(ds.TurnsBySurface) > 0 {
		b.WriteString("\nBy surface:\n")
		for _, s := range sortedKeys(ds.TurnsBySurface) {
			fmt.Fprintf(&b, "- %s: %d\n", s, ds.TurnsBySurface[s])
		}
	}
	if len(ds.SessionStats) > 0 {
		b.WriteString("\nBy session:\n")
		ids := make([]string, 0, len(ds.SessionStats))
		for id := range ds.SessionStats {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			ss := ds.SessionStats[id]
			fmt.Fprintf(&b, "- %s: %d turns, %d tokens", id, ss.Turns, ss.TotalTokens)
			if ss.Failed > 0 {
				fmt.Fprintf(&b, ", %d failed", ss.Failed)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (ds *DailyStats) ToJSON() (string, error) {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
