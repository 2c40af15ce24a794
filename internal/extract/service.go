package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"

	"reviewforge/internal/logging"
)

const defaultConcurrency = 6

// timeoutRaw is what a timed-out unit contributes before repair; Normalize
// turns it into the compact timeout error record.
const timeoutRaw = `{"error": "timeout"}`

// Result summarizes one extraction run.
type Result struct {
	Submitted int
	Skipped   int
	Written   int
	Errors    int
}

// Service dispatches review texts to the generator with bounded parallelism.
type Service struct {
	gen         Generator
	logger      *slog.Logger
	concurrency int
	progress    bool
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithProgress enables an interactive progress bar.
func WithProgress(enabled bool) ServiceOption {
	return func(s *Service) {
		s.progress = enabled
	}
}

// NewService builds an extraction service.
func NewService(gen Generator, logger *slog.Logger, concurrency int, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	svc := &Service{
		gen:         gen,
		logger:      logging.WithComponent(logger, "extract"),
		concurrency: concurrency,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// SummarizeAll runs every non-empty text through the generator and appends
// exactly one normalized line per submitted unit to the sink. Completion
// order decides output order. Units are never retried; a timeout or a
// dispatch failure becomes a typed error record for that unit. The pool runs
// every submitted unit to completion before returning.
func (s *Service) SummarizeAll(ctx context.Context, texts []string, sink *Sink) (*Result, error) {
	result := &Result{}

	jobs := make([]string, 0, len(texts))
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			result.Skipped++
			continue
		}
		jobs = append(jobs, text)
	}
	result.Submitted = len(jobs)

	s.logger.Info("extraction started",
		slog.Int("units", result.Submitted),
		slog.Int("skipped", result.Skipped),
		slog.Int("concurrency", s.concurrency),
	)

	var bar *progressbar.ProgressBar
	if s.progress {
		bar = progressbar.NewOptions(result.Submitted,
			progressbar.OptionSetDescription("Summarizing"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	queue := make(chan string)
	var mu sync.Mutex
	var writeErr error
	var wg sync.WaitGroup

	for i := 0; i < s.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for text := range queue {
				line := s.processOne(ctx, text)
				err := sink.WriteLine(line)
				mu.Lock()
				if err != nil {
					if writeErr == nil {
						writeErr = err
					}
				} else {
					result.Written++
					if IsErrorRecord(line) {
						result.Errors++
					}
				}
				mu.Unlock()
				if bar != nil {
					_ = bar.Add(1)
				}
			}
		}()
	}

	for _, text := range jobs {
		queue <- text
	}
	close(queue)
	wg.Wait()

	if bar != nil {
		_ = bar.Finish()
	}

	s.logger.Info("extraction complete",
		slog.Int("written", result.Written),
		slog.Int("errors", result.Errors),
	)
	if writeErr != nil {
		return result, fmt.Errorf("extract: %w", writeErr)
	}
	return result, nil
}

// processOne always yields exactly one normalized line, whatever happens to
// the unit: success, timeout, dispatch error, or panic.
func (s *Service) processOne(ctx context.Context, text string) (line string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("unit panicked", slog.Any("panic", r))
			line = exceptionRecord(fmt.Sprint(r))
		}
	}()

	raw, err := s.gen.Generate(ctx, BuildPrompt(text))
	switch {
	case err == nil:
	case errors.Is(err, ErrTimeout):
		s.logger.Warn("unit timed out")
		return Normalize(timeoutRaw)
	default:
		s.logger.Warn("unit failed", slog.Any("error", err))
		return exceptionRecord(err.Error())
	}
	return Normalize(raw)
}
