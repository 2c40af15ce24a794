package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
	"github.com/schollz/progressbar/v3"

	"reviewforge/internal/config"
	"reviewforge/internal/fileutil"
	"reviewforge/internal/logging"
	"reviewforge/internal/review"
	"reviewforge/internal/steam"
)

// ErrCorpusExists is returned when a raw corpus for the app already exists
// and overwrite was not requested.
var ErrCorpusExists = errors.New("raw corpus already exists")

// ErrCorpusLocked is returned when another fetch session holds the corpus lock.
var ErrCorpusLocked = errors.New("raw corpus locked by another session")

// Pager fetches one page of reviews. *steam.Client satisfies this.
type Pager interface {
	FetchPage(ctx context.Context, appID int64, req steam.PageRequest) (*steam.PageResponse, error)
}

// Options describes a fetch session.
type Options struct {
	AppID          int64
	MaxReviews     int
	Language       string
	Filter         string
	OffTopicFilter int
	PageSize       int
	Overwrite      bool
}

// Result summarizes a completed fetch session.
type Result struct {
	CorpusPath  string
	SummaryPath string
	Total       int
	Pages       int
	StopReason  string
}

// Stop reasons recorded on the session result.
const (
	StopCursorRepeated = "cursor_repeated"
	StopNoReviews      = "no_reviews"
	StopLastPage       = "last_page"
	StopQuotaReached   = "quota_reached"
)

// Service runs fetch sessions: strictly sequential, one page in flight.
type Service struct {
	cfg       *config.Config
	pager     Pager
	logger    *slog.Logger
	pageDelay time.Duration
	sleeper   func(context.Context, time.Duration) error
	progress  bool
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithProgress enables an interactive progress bar.
func WithProgress(enabled bool) ServiceOption {
	return func(s *Service) {
		s.progress = enabled
	}
}

// WithSleeper overrides the inter-page sleep (useful for tests).
func WithSleeper(sleeper func(context.Context, time.Duration) error) ServiceOption {
	return func(s *Service) {
		if sleeper != nil {
			s.sleeper = sleeper
		}
	}
}

// NewService builds a fetch service.
func NewService(cfg *config.Config, pager Pager, logger *slog.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	svc := &Service{
		cfg:       cfg,
		pager:     pager,
		logger:    logging.WithComponent(logger, "fetch"),
		pageDelay: time.Duration(cfg.Steam.PageDelayMS) * time.Millisecond,
		sleeper:   sleepContext,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// FetchAll pages through the reviews feed until one of the termination
// conditions fires, appending every review to the raw corpus as it arrives.
// The query summary is written once, from the first page that carries one.
// A page-request failure (after the client's internal retries) aborts the
// session; reviews already appended remain valid.
func (s *Service) FetchAll(ctx context.Context, opts Options) (*Result, error) {
	if opts.AppID <= 0 {
		return nil, errors.New("fetch: app id must be positive")
	}
	if opts.MaxReviews <= 0 {
		return nil, errors.New("fetch: max reviews must be positive")
	}
	pageSize := opts.PageSize
	if pageSize <= 0 || pageSize > steam.MaxPageSize {
		pageSize = steam.MaxPageSize
	}

	corpusPath := s.cfg.RawCorpusPath(opts.AppID)
	summaryPath := s.cfg.SummaryPath(opts.AppID)

	if fileutil.PathExists(corpusPath) && !opts.Overwrite {
		return nil, fmt.Errorf("%w: %s (rerun with --overwrite to refetch)", ErrCorpusExists, corpusPath)
	}

	lock := flock.New(corpusPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("fetch: acquire corpus lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrCorpusLocked, corpusPath)
	}
	defer func() { _ = lock.Unlock() }()

	writer, err := review.CreateCorpus(corpusPath)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer writer.Close()

	var bar *progressbar.ProgressBar
	if s.progress {
		bar = progressbar.NewOptions(opts.MaxReviews,
			progressbar.OptionSetDescription("Fetching reviews"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	result := &Result{CorpusPath: corpusPath, SummaryPath: summaryPath}
	cursor := steam.InitialCursor
	seenCursors := map[string]struct{}{}
	summaryWritten := false

	s.logger.Info("session started",
		slog.Int64(logging.FieldAppID, opts.AppID),
		slog.Int("max_reviews", opts.MaxReviews),
		slog.String("language", opts.Language),
		slog.String("filter", opts.Filter),
	)

	for result.Total < opts.MaxReviews {
		// Loop-guard: a cursor observed before means the server is not
		// advancing; stop before issuing another request with it.
		if _, seen := seenCursors[cursor]; seen {
			result.StopReason = StopCursorRepeated
			s.logger.Warn("cursor repeated, stopping to avoid loop", slog.String(logging.FieldCursor, cursor))
			break
		}
		seenCursors[cursor] = struct{}{}

		page, err := s.pager.FetchPage(ctx, opts.AppID, steam.PageRequest{
			Cursor:         cursor,
			Language:       opts.Language,
			Filter:         opts.Filter,
			OffTopicFilter: opts.OffTopicFilter,
			NumPerPage:     pageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", result.Pages+1, err)
		}
		result.Pages++

		if len(page.Reviews) == 0 {
			result.StopReason = StopNoReviews
			s.logger.Info("no more reviews returned, stopping")
			break
		}

		for _, raw := range page.Reviews {
			if err := writer.Append(raw); err != nil {
				return nil, fmt.Errorf("fetch: %w", err)
			}
		}
		result.Total += len(page.Reviews)
		if bar != nil {
			_ = bar.Add(len(page.Reviews))
		}

		if !summaryWritten && len(page.QuerySummary) > 0 {
			if err := fileutil.WriteJSONAtomic(summaryPath, page.QuerySummary); err != nil {
				return nil, fmt.Errorf("fetch: write query summary: %w", err)
			}
			summaryWritten = true
		}

		s.logger.Debug("page complete",
			slog.Int("page", result.Pages),
			slog.Int("reviews", len(page.Reviews)),
			slog.Int("total", result.Total),
		)

		cursor = page.Cursor
		if cursor == "" || len(page.Reviews) < pageSize {
			result.StopReason = StopLastPage
			s.logger.Info("last page reached", slog.Int("total", result.Total))
			break
		}

		// Informal rate expectation of the source: small fixed delay between
		// successful pages (not after backoff sleeps, which the client owns).
		if err := s.sleeper(ctx, s.pageDelay); err != nil {
			return nil, err
		}
	}

	if result.StopReason == "" {
		result.StopReason = StopQuotaReached
	}
	if bar != nil {
		_ = bar.Finish()
	}

	s.logger.Info("session complete",
		slog.Int64(logging.FieldAppID, opts.AppID),
		slog.Int("total", result.Total),
		slog.Int("pages", result.Pages),
		slog.String("stop_reason", result.StopReason),
	)
	return result, nil
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
