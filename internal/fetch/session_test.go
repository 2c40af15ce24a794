package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"reviewforge/internal/config"
	"reviewforge/internal/fileutil"
	"reviewforge/internal/review"
	"reviewforge/internal/steam"
)

type scriptedPage struct {
	reviews int
	cursor  string
	summary map[string]any
	err     error
}

// scriptPager replays a fixed page sequence and records every request it saw.
type scriptPager struct {
	pages    []scriptedPage
	requests []steam.PageRequest
}

func (p *scriptPager) FetchPage(_ context.Context, _ int64, req steam.PageRequest) (*steam.PageResponse, error) {
	p.requests = append(p.requests, req)
	if len(p.pages) == 0 {
		return nil, errors.New("scriptPager: no pages left")
	}
	page := p.pages[0]
	p.pages = p.pages[1:]
	if page.err != nil {
		return nil, page.err
	}
	resp := &steam.PageResponse{Cursor: page.cursor, QuerySummary: page.summary}
	for i := 0; i < page.reviews; i++ {
		line := fmt.Sprintf(`{"recommendationid":"%d","review":"r%d"}`, len(p.requests)*1000+i, i)
		resp.Reviews = append(resp.Reviews, json.RawMessage(line))
	}
	return resp, nil
}

func newTestService(t *testing.T, pager Pager) (*Service, *config.Config) {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.OutDir = t.TempDir()
	cfg.Steam.PageDelayMS = 0
	svc := NewService(&cfg, pager, nil, WithSleeper(func(context.Context, time.Duration) error { return nil }))
	return svc, &cfg
}

func corpusLineCount(t *testing.T, path string) int {
	t.Helper()
	count := 0
	err := review.EachRecord(path, func(review.Record) error {
		count++
		return nil
	})
	if err != nil {
		t.Fatalf("EachRecord: %v", err)
	}
	return count
}

func TestFetchAllStopsOnRepeatedCursor(t *testing.T) {
	pager := &scriptPager{pages: []scriptedPage{
		{reviews: 100, cursor: "AoJwxyz", summary: map[string]any{"total_reviews": float64(4213)}},
		{reviews: 100, cursor: "AoJwxyz"},
		{reviews: 100, cursor: "never-requested"},
	}}
	svc, _ := newTestService(t, pager)

	result, err := svc.FetchAll(context.Background(), Options{AppID: 10, MaxReviews: 1000})
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if result.StopReason != StopCursorRepeated {
		t.Fatalf("stop reason = %q", result.StopReason)
	}
	if len(pager.requests) != 2 {
		t.Fatalf("expected exactly 2 requests, got %d", len(pager.requests))
	}
	if result.Total != 200 {
		t.Fatalf("total = %d", result.Total)
	}
	if got := corpusLineCount(t, result.CorpusPath); got != 200 {
		t.Fatalf("corpus lines = %d", got)
	}
}

func TestFetchAllEmptyFirstPage(t *testing.T) {
	pager := &scriptPager{pages: []scriptedPage{
		{reviews: 0, cursor: "AoJw", summary: map[string]any{"total_reviews": float64(0)}},
	}}
	svc, _ := newTestService(t, pager)

	result, err := svc.FetchAll(context.Background(), Options{AppID: 10, MaxReviews: 100})
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if result.StopReason != StopNoReviews {
		t.Fatalf("stop reason = %q", result.StopReason)
	}
	// Empty corpus file exists; no summary was written.
	if !fileutil.PathExists(result.CorpusPath) {
		t.Fatal("corpus file should exist even when empty")
	}
	if got := corpusLineCount(t, result.CorpusPath); got != 0 {
		t.Fatalf("corpus lines = %d", got)
	}
	if fileutil.PathExists(result.SummaryPath) {
		t.Fatal("summary should not be written when no page carried reviews")
	}
}

func TestFetchAllShortPageIsLastPage(t *testing.T) {
	pager := &scriptPager{pages: []scriptedPage{
		{reviews: 100, cursor: "AoJw1", summary: map[string]any{"total_reviews": float64(137)}},
		{reviews: 37, cursor: "AoJw2"},
	}}
	svc, _ := newTestService(t, pager)

	result, err := svc.FetchAll(context.Background(), Options{AppID: 10, MaxReviews: 1000})
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if result.StopReason != StopLastPage {
		t.Fatalf("stop reason = %q", result.StopReason)
	}
	if result.Total != 137 || result.Pages != 2 {
		t.Fatalf("total = %d pages = %d", result.Total, result.Pages)
	}
}

func TestFetchAllEmptyCursorStops(t *testing.T) {
	pager := &scriptPager{pages: []scriptedPage{
		{reviews: 100, cursor: ""},
	}}
	svc, _ := newTestService(t, pager)

	result, err := svc.FetchAll(context.Background(), Options{AppID: 10, MaxReviews: 1000})
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if result.StopReason != StopLastPage || len(pager.requests) != 1 {
		t.Fatalf("stop reason = %q, requests = %d", result.StopReason, len(pager.requests))
	}
}

func TestFetchAllQuota(t *testing.T) {
	pager := &scriptPager{pages: []scriptedPage{
		{reviews: 100, cursor: "AoJw1", summary: map[string]any{"total_reviews": float64(9000)}},
		{reviews: 100, cursor: "AoJw2"},
		{reviews: 100, cursor: "AoJw3"},
	}}
	svc, _ := newTestService(t, pager)

	result, err := svc.FetchAll(context.Background(), Options{AppID: 10, MaxReviews: 250})
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if result.StopReason != StopQuotaReached {
		t.Fatalf("stop reason = %q", result.StopReason)
	}
	// Quota check happens between pages; the third full page overshoots to 300.
	if result.Total != 300 || len(pager.requests) != 3 {
		t.Fatalf("total = %d, requests = %d", result.Total, len(pager.requests))
	}
}

func TestFetchAllSummaryWrittenOnceFromFirstCarryingPage(t *testing.T) {
	pager := &scriptPager{pages: []scriptedPage{
		{reviews: 100, cursor: "AoJw1", summary: map[string]any{"total_reviews": float64(4213), "review_score": float64(8)}},
		{reviews: 50, cursor: "AoJw2", summary: map[string]any{"total_reviews": float64(9999)}},
	}}
	svc, _ := newTestService(t, pager)

	result, err := svc.FetchAll(context.Background(), Options{AppID: 10, MaxReviews: 1000})
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}

	data, err := os.ReadFile(result.SummaryPath)
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	var summary map[string]any
	if err := json.Unmarshal(data, &summary); err != nil {
		t.Fatalf("parse summary: %v", err)
	}
	if summary["total_reviews"] != float64(4213) {
		t.Fatalf("summary not from first page: %v", summary)
	}
}

func TestFetchAllRefusesExistingCorpus(t *testing.T) {
	pager := &scriptPager{}
	svc, cfg := newTestService(t, pager)
	if err := os.WriteFile(cfg.RawCorpusPath(10), []byte(`{"recommendationid":"1"}`+"\n"), 0o644); err != nil {
		t.Fatalf("seed corpus: %v", err)
	}

	_, err := svc.FetchAll(context.Background(), Options{AppID: 10, MaxReviews: 100})
	if !errors.Is(err, ErrCorpusExists) {
		t.Fatalf("expected ErrCorpusExists, got %v", err)
	}
	if len(pager.requests) != 0 {
		t.Fatalf("no requests should be made, got %d", len(pager.requests))
	}

	// The existing corpus is untouched.
	if got := corpusLineCount(t, cfg.RawCorpusPath(10)); got != 1 {
		t.Fatalf("existing corpus modified, lines = %d", got)
	}
}

func TestFetchAllOverwriteReplacesCorpus(t *testing.T) {
	pager := &scriptPager{pages: []scriptedPage{
		{reviews: 5, cursor: "AoJw1"},
	}}
	svc, cfg := newTestService(t, pager)
	if err := os.WriteFile(cfg.RawCorpusPath(10), []byte("old\nold\n"), 0o644); err != nil {
		t.Fatalf("seed corpus: %v", err)
	}

	result, err := svc.FetchAll(context.Background(), Options{AppID: 10, MaxReviews: 100, Overwrite: true})
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if got := corpusLineCount(t, result.CorpusPath); got != 5 {
		t.Fatalf("corpus lines = %d", got)
	}
}

func TestFetchAllAbortsOnPageError(t *testing.T) {
	pager := &scriptPager{pages: []scriptedPage{
		{reviews: 100, cursor: "AoJw1"},
		{err: steam.ErrRetriesExhausted},
	}}
	svc, _ := newTestService(t, pager)

	_, err := svc.FetchAll(context.Background(), Options{AppID: 10, MaxReviews: 1000})
	if !errors.Is(err, steam.ErrRetriesExhausted) {
		t.Fatalf("expected wrapped retry error, got %v", err)
	}
	if !strings.Contains(err.Error(), "page 2") {
		t.Fatalf("error should name the failing page: %v", err)
	}

	// Reviews from the successful first page survive on disk.
	cfgPath := svc.cfg.RawCorpusPath(10)
	if got := corpusLineCount(t, cfgPath); got != 100 {
		t.Fatalf("corpus lines after abort = %d", got)
	}
}

func TestFetchAllRequestShape(t *testing.T) {
	pager := &scriptPager{pages: []scriptedPage{
		{reviews: 10, cursor: "AoJw1"},
	}}
	svc, _ := newTestService(t, pager)

	_, err := svc.FetchAll(context.Background(), Options{
		AppID:          570,
		MaxReviews:     100,
		Language:       "russian",
		Filter:         "recent",
		OffTopicFilter: 1,
	})
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	req := pager.requests[0]
	if req.Cursor != steam.InitialCursor {
		t.Fatalf("first cursor = %q", req.Cursor)
	}
	if req.Language != "russian" || req.Filter != "recent" || req.OffTopicFilter != 1 {
		t.Fatalf("request options not forwarded: %+v", req)
	}
	if req.NumPerPage != steam.MaxPageSize {
		t.Fatalf("default page size = %d", req.NumPerPage)
	}
}

func TestFetchAllRejectsBadOptions(t *testing.T) {
	svc, _ := newTestService(t, &scriptPager{})
	if _, err := svc.FetchAll(context.Background(), Options{AppID: 0, MaxReviews: 10}); err == nil {
		t.Fatal("expected error for zero app id")
	}
	if _, err := svc.FetchAll(context.Background(), Options{AppID: 5, MaxReviews: 0}); err == nil {
		t.Fatal("expected error for zero max reviews")
	}
}
