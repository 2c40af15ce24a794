package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

// scriptedGenerator maps review text to a canned reply or failure.
type scriptedGenerator struct {
	replies map[string]string
	fail    map[string]error
	panics  map[string]string
	calls   atomic.Int64
}

func (g *scriptedGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.calls.Add(1)
	for text, msg := range g.panics {
		if strings.Contains(prompt, text) {
			panic(msg)
		}
	}
	for text, err := range g.fail {
		if strings.Contains(prompt, text) {
			return "", err
		}
	}
	for text, reply := range g.replies {
		if strings.Contains(prompt, text) {
			return reply, nil
		}
	}
	return "", errors.New("scriptedGenerator: unmatched prompt")
}

func openTestSink(t *testing.T) (*Sink, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "review_summaries.jsonl")
	sink, err := OpenSink(path)
	if err != nil {
		t.Fatalf("OpenSink: %v", err)
	}
	t.Cleanup(func() { _ = sink.Close() })
	return sink, path
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sink: %v", err)
	}
	trimmed := strings.TrimRight(string(data), "\n")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}

func TestSummarizeAllOneLinePerNonEmptyUnit(t *testing.T) {
	gen := &scriptedGenerator{replies: map[string]string{}}
	var texts []string
	for i := 0; i < 8; i++ {
		text := fmt.Sprintf("review number %d", i)
		texts = append(texts, text)
		gen.replies[text] = fmt.Sprintf("<JSON>\n{\"task\": \"None\", \"confidence\": 0.0, \"summary\": \"s%d\"}", i)
	}
	// K = 3 empty or whitespace-only units are skipped outright.
	texts = append(texts, "", "   ", "\n\t")

	sink, path := openTestSink(t)
	svc := NewService(gen, nil, 4)

	result, err := svc.SummarizeAll(context.Background(), texts, sink)
	if err != nil {
		t.Fatalf("SummarizeAll: %v", err)
	}
	if result.Submitted != 8 || result.Skipped != 3 {
		t.Fatalf("submitted = %d skipped = %d", result.Submitted, result.Skipped)
	}
	if result.Written != 8 || result.Errors != 0 {
		t.Fatalf("written = %d errors = %d", result.Written, result.Errors)
	}

	lines := readLines(t, path)
	if len(lines) != 8 {
		t.Fatalf("expected 8 lines (N−K), got %d", len(lines))
	}
	for _, line := range lines {
		var obj map[string]any
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			t.Fatalf("line not valid JSON: %v (%q)", err, line)
		}
	}
	if gen.calls.Load() != 8 {
		t.Fatalf("generator called %d times", gen.calls.Load())
	}
}

func TestSummarizeAllTimeoutBecomesErrorRecord(t *testing.T) {
	gen := &scriptedGenerator{
		replies: map[string]string{"good one": `{"task": "None", "confidence": 0.0}`},
		fail:    map[string]error{"slow one": ErrTimeout},
	}
	sink, path := openTestSink(t)
	svc := NewService(gen, nil, 2)

	result, err := svc.SummarizeAll(context.Background(), []string{"good one", "slow one"}, sink)
	if err != nil {
		t.Fatalf("SummarizeAll: %v", err)
	}
	if result.Written != 2 || result.Errors != 1 {
		t.Fatalf("written = %d errors = %d", result.Written, result.Errors)
	}

	var sawTimeout bool
	for _, line := range readLines(t, path) {
		if line == `{"error":"timeout"}` {
			sawTimeout = true
		}
	}
	if !sawTimeout {
		t.Fatal("timeout error record missing")
	}
}

func TestSummarizeAllDispatchFailureBecomesExceptionRecord(t *testing.T) {
	gen := &scriptedGenerator{
		fail: map[string]error{"broken": errors.New("pipe closed")},
	}
	sink, path := openTestSink(t)
	svc := NewService(gen, nil, 1)

	result, err := svc.SummarizeAll(context.Background(), []string{"broken"}, sink)
	if err != nil {
		t.Fatalf("SummarizeAll: %v", err)
	}
	if result.Written != 1 || result.Errors != 1 {
		t.Fatalf("written = %d errors = %d", result.Written, result.Errors)
	}

	lines := readLines(t, path)
	var rec struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("record not valid JSON: %v", err)
	}
	if !strings.HasPrefix(rec.Error, "exception:") || !strings.Contains(rec.Error, "pipe closed") {
		t.Fatalf("error = %q", rec.Error)
	}
}

func TestSummarizeAllPanicStillYieldsOneLine(t *testing.T) {
	gen := &scriptedGenerator{
		panics: map[string]string{"explosive": "boom"},
	}
	sink, path := openTestSink(t)
	svc := NewService(gen, nil, 1)

	result, err := svc.SummarizeAll(context.Background(), []string{"explosive"}, sink)
	if err != nil {
		t.Fatalf("SummarizeAll: %v", err)
	}
	if result.Written != 1 {
		t.Fatalf("written = %d", result.Written)
	}
	lines := readLines(t, path)
	if len(lines) != 1 || !strings.Contains(lines[0], "exception:boom") {
		t.Fatalf("unexpected lines: %v", lines)
	}
}

func TestSummarizeAllMalformedReplyBecomesDecodeError(t *testing.T) {
	gen := &scriptedGenerator{
		replies: map[string]string{"weird": "<JSON>\n{\"task\": broken words here}"},
	}
	sink, path := openTestSink(t)
	svc := NewService(gen, nil, 1)

	result, err := svc.SummarizeAll(context.Background(), []string{"weird"}, sink)
	if err != nil {
		t.Fatalf("SummarizeAll: %v", err)
	}
	if result.Errors != 1 {
		t.Fatalf("errors = %d", result.Errors)
	}
	lines := readLines(t, path)
	if !strings.Contains(lines[0], `"error":"decode_error"`) {
		t.Fatalf("expected decode_error, got %q", lines[0])
	}
}

func TestSinkAppendsAcrossRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "review_summaries.jsonl")

	first, err := OpenSink(path)
	if err != nil {
		t.Fatalf("OpenSink: %v", err)
	}
	if err := first.WriteLine(`{"task":"None"}`); err != nil {
		t.Fatalf("WriteLine: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := OpenSink(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := second.WriteLine(`{"task":"fix lag"}`); err != nil {
		t.Fatalf("WriteLine: %v", err)
	}
	if err := second.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	lines := readLines(t, path)
	if len(lines) != 2 {
		t.Fatalf("append-only corpus should have 2 lines, got %d", len(lines))
	}
}
