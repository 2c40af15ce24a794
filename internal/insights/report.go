package insights

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// reportTopCategories caps how many buckets the report lists.
const reportTopCategories = 5

// SentimentStats is the report's sentiment baseline, derived from
// sentiment_results.csv.
type SentimentStats struct {
	Total         int
	AvgSentiment  float64
	PositiveShare float64
	NegativeShare float64
}

// ReadSentimentStats computes the baseline from the sentiment CSV.
func ReadSentimentStats(csvPath string) (*SentimentStats, error) {
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("open sentiment csv: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read sentiment header: %w", err)
	}
	col := -1
	for i, name := range header {
		if name == "sentiment" {
			col = i
			break
		}
	}
	if col == -1 {
		return nil, fmt.Errorf("sentiment csv %s has no sentiment column", csvPath)
	}

	stats := &SentimentStats{}
	var sum float64
	var pos, neg int
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read sentiment row: %w", err)
		}
		value, err := strconv.ParseFloat(record[col], 64)
		if err != nil {
			return nil, fmt.Errorf("parse sentiment value %q: %w", record[col], err)
		}
		stats.Total++
		sum += value
		if value > 0.2 {
			pos++
		}
		if value < -0.2 {
			neg++
		}
	}
	if stats.Total > 0 {
		stats.AvgSentiment = sum / float64(stats.Total)
		stats.PositiveShare = float64(pos) / float64(stats.Total) * 100
		stats.NegativeShare = float64(neg) / float64(stats.Total) * 100
	}
	return stats, nil
}

// ReadAggregates loads a previously written insights_aggregate.csv.
func ReadAggregates(csvPath string) ([]CategoryAgg, error) {
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("open aggregate csv: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("read aggregate header: %w", err)
	}

	var aggs []CategoryAgg
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read aggregate row: %w", err)
		}
		if len(record) < 4 {
			return nil, fmt.Errorf("aggregate row too short: %v", record)
		}
		count, err := strconv.Atoi(record[1])
		if err != nil {
			return nil, fmt.Errorf("parse count %q: %w", record[1], err)
		}
		conf, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, fmt.Errorf("parse confidence %q: %w", record[2], err)
		}
		aggs = append(aggs, CategoryAgg{
			Category:      record[0],
			Count:         count,
			AvgConfidence: conf,
			Examples:      record[3],
		})
	}
	return aggs, nil
}

// RenderReport produces the developer report markdown: the sentiment
// baseline followed by the top categories, confidence-weighted.
func RenderReport(gameName string, stats *SentimentStats, aggs []CategoryAgg) string {
	title := cases.Title(language.English).String(strings.TrimSpace(gameName))
	if title == "" {
		title = "Untitled"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s – Developer Report\n\n", title)
	fmt.Fprintf(&b, "- Total reviews analyzed: **%s**\n", groupThousands(stats.Total))
	fmt.Fprintf(&b, "- Average sentiment: **%.3f**  | Positive share (>0.2): **%.1f%%**  | Negative share (<-0.2): **%.1f%%**\n\n",
		stats.AvgSentiment, stats.PositiveShare, stats.NegativeShare)

	if len(aggs) == 0 {
		b.WriteString("_No confident tasks found at current threshold._\n")
		return b.String()
	}

	b.WriteString("## Top Priorities (confidence-weighted)\n")
	limit := reportTopCategories
	if len(aggs) < limit {
		limit = len(aggs)
	}
	for _, agg := range aggs[:limit] {
		fmt.Fprintf(&b, "- **%s** — %d items (avg conf %.2f)\n", agg.Category, agg.Count, agg.AvgConfidence)
		if agg.Examples != "" {
			fmt.Fprintf(&b, "  - Examples: %s\n", agg.Examples)
		}
	}
	return b.String()
}

func groupThousands(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
