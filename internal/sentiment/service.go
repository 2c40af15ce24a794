package sentiment

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"reviewforge/internal/logging"
	"reviewforge/internal/review"
)

// csvHeader is the column layout of sentiment_results.csv.
var csvHeader = []string{
	"review_id", "review", "voted_up", "sentiment",
	"pos", "neu", "neg", "votes_up", "votes_funny", "playtime_forever",
}

// Result summarizes one scoring pass.
type Result struct {
	Analyzed    int
	Skipped     int
	CSVPath     string
	SummaryPath string
}

// Service scores a raw corpus and writes the tabular results.
type Service struct {
	analyzer *Analyzer
	logger   *slog.Logger
}

// NewService builds a sentiment service.
func NewService(logger *slog.Logger) (*Service, error) {
	analyzer, err := NewAnalyzer()
	if err != nil {
		return nil, fmt.Errorf("sentiment: %w", err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		analyzer: analyzer,
		logger:   logging.WithComponent(logger, "sentiment"),
	}, nil
}

type scoredRow struct {
	id              string
	text            string
	votedUp         bool
	scores          Scores
	votesUp         int64
	votesFunny      int64
	playtimeForever float64
}

// Analyze scores every non-empty review in the raw corpus and writes
// sentiment_results.csv plus the human-readable summary.
func (s *Service) Analyze(corpusPath, csvPath, summaryPath string) (*Result, error) {
	result := &Result{CSVPath: csvPath, SummaryPath: summaryPath}

	var rows []scoredRow
	err := review.EachRecord(corpusPath, func(rec review.Record) error {
		text := strings.TrimSpace(rec.Text())
		if text == "" {
			result.Skipped++
			return nil
		}
		rows = append(rows, scoredRow{
			id:              rec.ID(),
			text:            text,
			votedUp:         rec.VotedUp(),
			scores:          s.analyzer.Score(text),
			votesUp:         rec.VotesUp(),
			votesFunny:      rec.VotesFunny(),
			playtimeForever: rec.PlaytimeForever(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sentiment: %w", err)
	}
	result.Analyzed = len(rows)

	if err := writeCSV(csvPath, rows); err != nil {
		return nil, fmt.Errorf("sentiment: %w", err)
	}
	if err := writeSummary(summaryPath, rows); err != nil {
		return nil, fmt.Errorf("sentiment: %w", err)
	}

	s.logger.Info("scoring complete",
		slog.Int("analyzed", result.Analyzed),
		slog.Int("skipped", result.Skipped),
		slog.String("csv", csvPath),
	)
	return result, nil
}

func writeCSV(path string, rows []scoredRow) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create results csv: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.id,
			row.text,
			strconv.FormatBool(row.votedUp),
			formatFloat(row.scores.Compound),
			formatFloat(row.scores.Pos),
			formatFloat(row.scores.Neu),
			formatFloat(row.scores.Neg),
			strconv.FormatInt(row.votesUp, 10),
			strconv.FormatInt(row.votesFunny, 10),
			formatFloat(row.playtimeForever),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return file.Close()
}

func writeSummary(path string, rows []scoredRow) error {
	var (
		sentiments, playtimes                         []float64
		posSum, neuSum, negSum, votesSum, funnySum    float64
		sentSum, sentMin, sentMax, posShare, negShare float64
	)
	sentMin, sentMax = math.Inf(1), math.Inf(-1)
	for _, row := range rows {
		c := row.scores.Compound
		sentiments = append(sentiments, c)
		playtimes = append(playtimes, row.playtimeForever)
		sentSum += c
		posSum += row.scores.Pos
		neuSum += row.scores.Neu
		negSum += row.scores.Neg
		votesSum += float64(row.votesUp)
		funnySum += float64(row.votesFunny)
		if c < sentMin {
			sentMin = c
		}
		if c > sentMax {
			sentMax = c
		}
		if c > 0.2 {
			posShare++
		}
		if c < -0.2 {
			negShare++
		}
	}

	n := float64(len(rows))
	if n == 0 {
		sentMin, sentMax = 0, 0
	}
	mean := func(sum float64) float64 {
		if n == 0 {
			return 0
		}
		return sum / n
	}

	lines := []string{
		fmt.Sprintf("Total analyzed reviews: %s", groupThousands(len(rows))),
		fmt.Sprintf("Average sentiment: %.3f", mean(sentSum)),
		fmt.Sprintf("Positive share (>0.2): %.1f%%", mean(posShare)*100),
		fmt.Sprintf("Negative share (<-0.2): %.1f%%", mean(negShare)*100),
		"",
		fmt.Sprintf("Mean positive word ratio: %.3f", mean(posSum)),
		fmt.Sprintf("Mean neutral ratio: %.3f", mean(neuSum)),
		fmt.Sprintf("Mean negative ratio: %.3f", mean(negSum)),
		"",
		fmt.Sprintf("Average upvotes per review: %.2f", mean(votesSum)),
		fmt.Sprintf("Average funny votes per review: %.2f", mean(funnySum)),
		fmt.Sprintf("Median playtime before review (hrs): %.1f", median(playtimes)/60),
		"",
		fmt.Sprintf("Sentiment std deviation: %.3f (spread of opinions)", sampleStddev(sentiments, mean(sentSum))),
		fmt.Sprintf("Most negative review sentiment: %.3f", sentMin),
		fmt.Sprintf("Most positive review sentiment: %.3f", sentMax),
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// ReadReviewTexts loads the review column from sentiment_results.csv, in row
// order. This is the extract stage's input feed.
func ReadReviewTexts(csvPath string) ([]string, error) {
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("open results csv: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	col := -1
	for i, name := range header {
		if name == "review" {
			col = i
			break
		}
	}
	if col == -1 {
		return nil, fmt.Errorf("results csv %s has no review column", csvPath)
	}

	var texts []string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		texts = append(texts, record[col])
	}
	return texts, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
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

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// sampleStddev uses the n-1 denominator.
func sampleStddev(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}
