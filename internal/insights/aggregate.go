package insights

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"reviewforge/internal/extract"
	"reviewforge/internal/logging"
)

// exampleLimit caps how many top-confidence tasks illustrate each category.
const exampleLimit = 3

// TaskRow is one confident task kept for task_examples.csv.
type TaskRow struct {
	Category       string
	Task           string
	Confidence     float64
	OriginalReview string
}

// CategoryAgg is one aggregated bucket for insights_aggregate.csv.
type CategoryAgg struct {
	Category      string
	Count         int
	AvgConfidence float64
	Examples      string
}

// Result holds one aggregation pass, sorted by count then avg confidence.
type Result struct {
	Categories []CategoryAgg
	Tasks      []TaskRow
	Parsed     int
	Dropped    int
}

// Service buckets confident extraction results into dev-focus categories.
type Service struct {
	minConfidence float64
	logger        *slog.Logger
}

// NewService builds an insights service. Tasks below minConfidence, empty
// tasks, and the explicit "None" marker are all dropped.
func NewService(minConfidence float64, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		minConfidence: minConfidence,
		logger:        logging.WithComponent(logger, "insights"),
	}
}

// Aggregate reads the structured corpus and produces the category buckets.
func (s *Service) Aggregate(structuredPath string) (*Result, error) {
	records, err := loadStructured(structuredPath)
	if err != nil {
		return nil, fmt.Errorf("insights: %w", err)
	}

	result := &Result{Parsed: len(records)}
	for _, rec := range records {
		task := strings.TrimSpace(stringField(rec, "task"))
		conf := floatField(rec, "confidence", "self_confidence")
		if task == "" || strings.EqualFold(task, "none") || conf < s.minConfidence {
			result.Dropped++
			continue
		}
		review := strings.TrimSpace(stringField(rec, "original_review", "review"))
		result.Tasks = append(result.Tasks, TaskRow{
			Category:       Categorize(task),
			Task:           task,
			Confidence:     conf,
			OriginalReview: review,
		})
	}

	result.Categories = aggregate(result.Tasks)
	s.logger.Info("aggregation complete",
		slog.Int("parsed", result.Parsed),
		slog.Int("confident", len(result.Tasks)),
		slog.Int("categories", len(result.Categories)),
	)
	return result, nil
}

// loadStructured reads the structured corpus tolerantly: it accepts both
// one-line records and pretty-printed multi-line blocks, and runs the same
// repair the extractor uses on anything that does not parse as-is.
// Unrecoverable chunks are skipped, matching the corpus's best-effort nature.
func loadStructured(path string) ([]map[string]any, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open structured corpus: %w", err)
	}
	defer file.Close()

	var records []map[string]any
	var buf strings.Builder
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		buf.WriteString(line)
		if !strings.HasSuffix(line, "}") {
			continue
		}
		chunk := buf.String()
		buf.Reset()

		var rec map[string]any
		if err := json.Unmarshal([]byte(chunk), &rec); err == nil {
			records = append(records, rec)
			continue
		}
		repaired := extract.Normalize(chunk)
		if extract.IsErrorRecord(repaired) {
			continue
		}
		if err := json.Unmarshal([]byte(repaired), &rec); err == nil {
			records = append(records, rec)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read structured corpus: %w", err)
	}
	return records, nil
}

func aggregate(tasks []TaskRow) []CategoryAgg {
	byCategory := make(map[string][]TaskRow)
	for _, task := range tasks {
		byCategory[task.Category] = append(byCategory[task.Category], task)
	}

	var aggs []CategoryAgg
	for name, rows := range byCategory {
		var confSum float64
		for _, row := range rows {
			confSum += row.Confidence
		}
		sorted := append([]TaskRow(nil), rows...)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Confidence > sorted[j].Confidence
		})
		limit := exampleLimit
		if len(sorted) < limit {
			limit = len(sorted)
		}
		examples := make([]string, 0, limit)
		for _, row := range sorted[:limit] {
			examples = append(examples, row.Task)
		}
		aggs = append(aggs, CategoryAgg{
			Category:      name,
			Count:         len(rows),
			AvgConfidence: confSum / float64(len(rows)),
			Examples:      strings.Join(examples, "; "),
		})
	}

	sort.SliceStable(aggs, func(i, j int) bool {
		if aggs[i].Count != aggs[j].Count {
			return aggs[i].Count > aggs[j].Count
		}
		if aggs[i].AvgConfidence != aggs[j].AvgConfidence {
			return aggs[i].AvgConfidence > aggs[j].AvgConfidence
		}
		return aggs[i].Category < aggs[j].Category
	})
	return aggs
}

// WriteCSVs persists both aggregate outputs. Empty results still produce
// header-only files so downstream stages keep working.
func (s *Service) WriteCSVs(result *Result, aggPath, tasksPath string) error {
	if err := writeAggCSV(aggPath, result.Categories); err != nil {
		return fmt.Errorf("insights: %w", err)
	}
	if err := writeTasksCSV(tasksPath, result.Tasks); err != nil {
		return fmt.Errorf("insights: %w", err)
	}
	return nil
}

func writeAggCSV(path string, aggs []CategoryAgg) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create aggregate csv: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"category", "count", "avg_confidence", "examples"}); err != nil {
		return err
	}
	for _, agg := range aggs {
		row := []string{
			agg.Category,
			strconv.Itoa(agg.Count),
			strconv.FormatFloat(agg.AvgConfidence, 'g', -1, 64),
			agg.Examples,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return file.Close()
}

func writeTasksCSV(path string, tasks []TaskRow) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create tasks csv: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"category", "task", "confidence", "original_review"}); err != nil {
		return err
	}
	for _, task := range tasks {
		row := []string{
			task.Category,
			task.Task,
			strconv.FormatFloat(task.Confidence, 'g', -1, 64),
			task.OriginalReview,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return file.Close()
}

func stringField(rec map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := rec[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func floatField(rec map[string]any, keys ...string) float64 {
	for _, key := range keys {
		switch v := rec[key].(type) {
		case float64:
			return v
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
		}
	}
	return 0
}
