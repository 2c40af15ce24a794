package insights

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSentimentCSV(t *testing.T, rows ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sentiment_results.csv")
	header := "review_id,review,voted_up,sentiment,pos,neu,neg,votes_up,votes_funny,playtime_forever\n"
	if err := os.WriteFile(path, []byte(header+strings.Join(rows, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write sentiment csv: %v", err)
	}
	return path
}

func TestReadSentimentStats(t *testing.T) {
	path := writeSentimentCSV(t,
		`1,fun game,true,0.8,0.5,0.5,0,3,0,600`,
		`2,lags,false,-0.6,0,0.4,0.6,1,0,90`,
		`3,fine,true,0.1,0.1,0.9,0,0,0,30`,
	)

	stats, err := ReadSentimentStats(path)
	if err != nil {
		t.Fatalf("ReadSentimentStats: %v", err)
	}
	if stats.Total != 3 {
		t.Fatalf("total = %d", stats.Total)
	}
	if stats.AvgSentiment < 0.09 || stats.AvgSentiment > 0.11 {
		t.Fatalf("avg = %v", stats.AvgSentiment)
	}
	if stats.PositiveShare < 33 || stats.PositiveShare > 34 {
		t.Fatalf("positive share = %v", stats.PositiveShare)
	}
	if stats.NegativeShare < 33 || stats.NegativeShare > 34 {
		t.Fatalf("negative share = %v", stats.NegativeShare)
	}
}

func TestRenderReport(t *testing.T) {
	stats := &SentimentStats{Total: 4213, AvgSentiment: 0.123, PositiveShare: 55.5, NegativeShare: 20.1}
	aggs := []CategoryAgg{
		{Category: "netcode/desync", Count: 12, AvgConfidence: 0.84, Examples: "fix desync; improve netcode"},
		{Category: "stability/crashes", Count: 7, AvgConfidence: 0.91},
	}

	report := RenderReport("arc raiders", stats, aggs)
	for _, want := range []string{
		"# Arc Raiders – Developer Report",
		"Total reviews analyzed: **4,213**",
		"Average sentiment: **0.123**",
		"## Top Priorities (confidence-weighted)",
		"**netcode/desync** — 12 items (avg conf 0.84)",
		"Examples: fix desync; improve netcode",
		"**stability/crashes** — 7 items (avg conf 0.91)",
	} {
		if !strings.Contains(report, want) {
			t.Fatalf("report missing %q:\n%s", want, report)
		}
	}
}

func TestRenderReportNoConfidentTasks(t *testing.T) {
	report := RenderReport("arc raiders", &SentimentStats{Total: 10}, nil)
	if !strings.Contains(report, "_No confident tasks found at current threshold._") {
		t.Fatalf("empty-aggregate message missing:\n%s", report)
	}
}

func TestRenderReportCapsAtTopFive(t *testing.T) {
	aggs := make([]CategoryAgg, 0, 7)
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		aggs = append(aggs, CategoryAgg{Category: name, Count: 1, AvgConfidence: 0.9})
	}
	report := RenderReport("x", &SentimentStats{}, aggs)
	if strings.Contains(report, "**f**") || strings.Contains(report, "**g**") {
		t.Fatalf("report should list only the top 5:\n%s", report)
	}
}
