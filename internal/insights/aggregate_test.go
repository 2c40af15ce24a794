package insights

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCategorize(t *testing.T) {
	cases := map[string]string{
		"fix server desync during firefights":    "netcode/desync",
		"optimize GPU usage to stop stutter":     "performance/fps",
		"resolve crash on startup":               "stability/crashes",
		"rebalance weapon damage curves":         "weapon/ai balance",
		"rework the inventory UI":                "ui/ux/controls",
		"ban aimbot users faster":                "anti-cheat",
		"add voice chat for squads":              "social experience",
		"make the tutorial less confusing":       "other",
	}
	for task, want := range cases {
		if got := Categorize(task); got != want {
			t.Fatalf("Categorize(%q) = %q, want %q", task, got, want)
		}
	}
	if got := Categorize(""); got != "" {
		t.Fatalf("Categorize(empty) = %q", got)
	}
}

func TestCategorizeFirstMatchWins(t *testing.T) {
	// "server" appears in matchmaking/servers, but "desync" is checked first.
	if got := Categorize("fix desync on busy servers"); got != "netcode/desync" {
		t.Fatalf("Categorize = %q", got)
	}
}

func writeStructured(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "review_summaries.jsonl")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write structured corpus: %v", err)
	}
	return path
}

func TestAggregateFiltersAndBuckets(t *testing.T) {
	path := writeStructured(t,
		`{"original_review":"lag everywhere","task":"fix server desync","confidence":0.9}`,
		`{"original_review":"still lag","task":"improve netcode","confidence":0.8}`,
		`{"original_review":"crashes a lot","task":"fix crash on alt-tab","confidence":0.7}`,
		`{"original_review":"meh","task":"None","confidence":0.9}`,
		`{"original_review":"vague","task":"make game better","confidence":0.3}`,
		`{"error":"timeout"}`,
		`{"error":"no_json_found","raw":"..."}`,
	)

	svc := NewService(0.6, nil)
	result, err := svc.Aggregate(path)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(result.Tasks) != 3 {
		t.Fatalf("confident tasks = %d", len(result.Tasks))
	}
	if len(result.Categories) != 2 {
		t.Fatalf("categories = %d: %+v", len(result.Categories), result.Categories)
	}

	top := result.Categories[0]
	if top.Category != "netcode/desync" || top.Count != 2 {
		t.Fatalf("top category = %+v", top)
	}
	if top.AvgConfidence < 0.84 || top.AvgConfidence > 0.86 {
		t.Fatalf("avg confidence = %v", top.AvgConfidence)
	}
	// Examples sorted by confidence, highest first.
	if !strings.HasPrefix(top.Examples, "fix server desync") {
		t.Fatalf("examples = %q", top.Examples)
	}
}

func TestAggregateSortsByCountThenConfidence(t *testing.T) {
	path := writeStructured(t,
		`{"task":"fix crash","confidence":0.95}`,
		`{"task":"fix desync","confidence":0.7}`,
	)

	svc := NewService(0.6, nil)
	result, err := svc.Aggregate(path)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	// Equal counts: the higher-confidence bucket leads.
	if result.Categories[0].Category != "stability/crashes" {
		t.Fatalf("order = %+v", result.Categories)
	}
}

func TestAggregateRepairsPythonishLines(t *testing.T) {
	path := writeStructured(t,
		"```json",
		`{"task": "fix stutter", "confidence": 0.9, "likes": None}`,
		"```",
	)

	svc := NewService(0.6, nil)
	result, err := svc.Aggregate(path)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(result.Tasks) != 1 || result.Tasks[0].Category != "performance/fps" {
		t.Fatalf("repaired record not recovered: %+v", result.Tasks)
	}
}

func TestWriteCSVsEmptyResultStillWritesHeaders(t *testing.T) {
	dir := t.TempDir()
	aggPath := filepath.Join(dir, "insights_aggregate.csv")
	tasksPath := filepath.Join(dir, "task_examples.csv")

	svc := NewService(0.6, nil)
	if err := svc.WriteCSVs(&Result{}, aggPath, tasksPath); err != nil {
		t.Fatalf("WriteCSVs: %v", err)
	}

	for _, path := range []string{aggPath, tasksPath} {
		file, err := os.Open(path)
		if err != nil {
			t.Fatalf("open %s: %v", path, err)
		}
		rows, err := csv.NewReader(file).ReadAll()
		file.Close()
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		if len(rows) != 1 {
			t.Fatalf("%s should be header-only, got %d rows", path, len(rows))
		}
	}
}

func TestWriteCSVsRoundTrip(t *testing.T) {
	path := writeStructured(t,
		`{"original_review":"lag, lag","task":"fix server desync","confidence":0.9}`,
	)
	dir := t.TempDir()
	aggPath := filepath.Join(dir, "insights_aggregate.csv")
	tasksPath := filepath.Join(dir, "task_examples.csv")

	svc := NewService(0.6, nil)
	result, err := svc.Aggregate(path)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if err := svc.WriteCSVs(result, aggPath, tasksPath); err != nil {
		t.Fatalf("WriteCSVs: %v", err)
	}

	aggs, err := ReadAggregates(aggPath)
	if err != nil {
		t.Fatalf("ReadAggregates: %v", err)
	}
	if len(aggs) != 1 || aggs[0].Category != "netcode/desync" || aggs[0].Count != 1 {
		t.Fatalf("round trip lost data: %+v", aggs)
	}
}
