package fileutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestPathExists(t *testing.T) {
	dir := t.TempDir()
	if PathExists(filepath.Join(dir, "missing.json")) {
		t.Fatal("expected missing path to report false")
	}
	path := filepath.Join(dir, "present.json")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if !PathExists(path) {
		t.Fatal("expected existing path to report true")
	}
}

func TestWriteJSONAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "meta.json")

	value := map[string]any{"total_reviews": 42, "review_score_desc": "Mostly Positive"}
	if err := WriteJSONAtomic(path, value); err != nil {
		t.Fatalf("WriteJSONAtomic returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode written file: %v", err)
	}
	if decoded["review_score_desc"] != "Mostly Positive" {
		t.Fatalf("unexpected payload: %v", decoded)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp files to be cleaned up, found %d entries", len(entries))
	}
}
