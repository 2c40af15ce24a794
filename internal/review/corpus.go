package review

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// scanBufferSize bounds a single corpus line; reviews max out well below 1 MiB.
const scanBufferSize = 1 << 20

// CorpusWriter appends raw review lines to a newline-delimited JSON file.
// Writes go straight to the file descriptor, so every completed line survives
// a crash.
type CorpusWriter struct {
	file  *os.File
	count int
}

// CreateCorpus opens path for writing, truncating any previous session.
// Callers are responsible for the exists/overwrite policy.
func CreateCorpus(path string) (*CorpusWriter, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create corpus: %w", err)
	}
	return &CorpusWriter{file: file}, nil
}

// Append writes one raw review as a single line. The payload is compacted but
// otherwise untouched.
func (w *CorpusWriter) Append(raw json.RawMessage) error {
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return fmt.Errorf("compact review: %w", err)
	}
	compact.WriteByte('\n')
	if _, err := w.file.Write(compact.Bytes()); err != nil {
		return fmt.Errorf("append review: %w", err)
	}
	w.count++
	return nil
}

// Count returns the number of lines appended so far.
func (w *CorpusWriter) Count() int {
	return w.count
}

// Close closes the underlying file.
func (w *CorpusWriter) Close() error {
	if w == nil || w.file == nil {
		return nil
	}
	return w.file.Close()
}

// EachRecord streams records from a raw corpus file, invoking fn per line.
// Blank lines are skipped; a malformed line aborts with its line number.
func EachRecord(path string, fn func(Record) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open corpus: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), scanBufferSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		rec, err := ParseRecord(line)
		if err != nil {
			return fmt.Errorf("corpus line %d: %w", lineNo, err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read corpus: %w", err)
	}
	return nil
}

// ReadAll loads every record from a raw corpus file.
func ReadAll(path string) ([]Record, error) {
	var records []Record
	err := EachRecord(path, func(rec Record) error {
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}
