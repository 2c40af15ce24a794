package review

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCorpusRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reviews_10.jsonl")

	writer, err := CreateCorpus(path)
	if err != nil {
		t.Fatalf("CreateCorpus: %v", err)
	}
	lines := []string{
		`{"recommendationid":"111","review":"superb gunplay","voted_up":true,"votes_up":3,"votes_funny":0,"author":{"playtime_forever":5400}}`,
		`{"recommendationid":"112","review":"серверы лагают","voted_up":false,"votes_up":1,"votes_funny":2,"author":{"playtime_forever":90}}`,
	}
	for _, line := range lines {
		if err := writer.Append(json.RawMessage(line)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if writer.Count() != 2 {
		t.Fatalf("Count = %d", writer.Count())
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	records, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first.ID() != "111" || !first.VotedUp() || first.VotesUp() != 3 {
		t.Fatalf("unexpected first record: %v", first)
	}
	if first.PlaytimeForever() != 5400 {
		t.Fatalf("playtime = %v", first.PlaytimeForever())
	}

	second := records[1]
	if second.Text() != "серверы лагают" {
		t.Fatalf("non-ASCII text not preserved: %q", second.Text())
	}
	if second.VotedUp() {
		t.Fatal("second record should be a downvote")
	}
}

func TestAppendWritesOneLinePerRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.jsonl")
	writer, err := CreateCorpus(path)
	if err != nil {
		t.Fatalf("CreateCorpus: %v", err)
	}
	// Pretty-printed input must still land as a single line.
	pretty := json.RawMessage("{\n  \"recommendationid\": \"1\",\n  \"review\": \"ok\"\n}")
	if err := writer.Append(pretty); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read corpus: %v", err)
	}
	content := strings.TrimRight(string(data), "\n")
	if strings.Contains(content, "\n") {
		t.Fatalf("record spans multiple lines: %q", content)
	}
}

func TestEachRecordSkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.jsonl")
	body := `{"recommendationid":"1","review":"a"}

{"recommendationid":"2","review":"b"}
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write corpus: %v", err)
	}

	var ids []string
	err := EachRecord(path, func(rec Record) error {
		ids = append(ids, rec.ID())
		return nil
	})
	if err != nil {
		t.Fatalf("EachRecord: %v", err)
	}
	if len(ids) != 2 || ids[0] != "1" || ids[1] != "2" {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestEachRecordReportsMalformedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.jsonl")
	if err := os.WriteFile(path, []byte("{not json}\n"), 0o644); err != nil {
		t.Fatalf("write corpus: %v", err)
	}
	err := EachRecord(path, func(Record) error { return nil })
	if err == nil || !strings.Contains(err.Error(), "line 1") {
		t.Fatalf("expected line-numbered parse error, got %v", err)
	}
}

func TestRecordAccessorsTolerateStringNumbers(t *testing.T) {
	rec := Record{
		"recommendationid": float64(99),
		"votes_up":         "7",
		"author":           map[string]any{"playtime_forever": "120.5"},
	}
	if rec.ID() != "99" {
		t.Fatalf("ID = %q", rec.ID())
	}
	if rec.VotesUp() != 7 {
		t.Fatalf("VotesUp = %d", rec.VotesUp())
	}
	if rec.PlaytimeForever() != 120.5 {
		t.Fatalf("PlaytimeForever = %v", rec.PlaytimeForever())
	}
}
