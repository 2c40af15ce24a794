package extract

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/gofrs/flock"
)

// ErrSinkLocked is returned when another extraction run holds the corpus lock.
var ErrSinkLocked = errors.New("structured corpus locked by another run")

// Sink is the append-only structured corpus. Writes from concurrently
// completing units are serialized; each line goes straight to the file
// descriptor, so a crash mid-run loses at most the in-flight units.
type Sink struct {
	mu    sync.Mutex
	file  *os.File
	lock  *flock.Flock
	lines int
}

// OpenSink opens (or creates) the structured corpus for appending and takes
// an advisory lock for the duration of the run.
func OpenSink(path string) (*Sink, error) {
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire corpus lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrSinkLocked, path)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open structured corpus: %w", err)
	}
	return &Sink{file: file, lock: lock}, nil
}

// WriteLine appends one normalized record.
func (s *Sink) WriteLine(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.file.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	s.lines++
	return nil
}

// Lines returns the number of records appended this run.
func (s *Sink) Lines() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines
}

// Close releases the lock and closes the file.
func (s *Sink) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	if s.file != nil {
		firstErr = s.file.Close()
		s.file = nil
	}
	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.lock = nil
	}
	return firstErr
}
