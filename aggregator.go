package main

import (
	"context"
	"errors"
	"math/rand"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Backend requests are throttled harder in random order because its start
// offsets are less predictable for the provider.
const (
	concurrencyRandom   = 2
	concurrencyOriginal = 3
)

// Aggregator drives the full search pipeline: cache lookup, batch
// planning, bounded backend fan-out, link validation, ordering, content
// verification and the final truncation to the requested count.
type Aggregator struct {
	cfg       *Config
	backend   ImageSearcher
	planner   *Planner
	validator *Validator
	verifier  LinkVerifier
	cache     *SearchCache
	log       *logrus.Logger

	mu  sync.Mutex
	rnd *rand.Rand
}

type batchResult struct {
	start        int
	items        []ImageData
	totalResults string
	searchTime   float64
}

func NewAggregator(cfg *Config, backend ImageSearcher, verifier LinkVerifier, log *logrus.Logger) *Aggregator {
	return &Aggregator{
		cfg:       cfg,
		backend:   backend,
		planner:   NewPlanner(),
		validator: NewValidator(),
		verifier:  verifier,
		cache:     NewSearchCache(),
		log:       log,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Search returns up to desiredCount verified image results for query.
// Individual batch or verification failures degrade the result set instead
// of failing the call; only missing credentials or a total backend failure
// surface as errors.
func (a *Aggregator) Search(ctx context.Context, query string, desiredCount int, order SortOrder) (*ImageSearchResponse, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	key := CacheKey(query, desiredCount, order)
	if cached := a.cache.Get(key); cached != nil {
		a.log.WithField("key", key).Debug("search cache hit")
		return cached, nil
	}

	if a.cfg.Google.APIKey == "" {
		return nil, &ConfigError{Missing: "GOOGLE_API_KEY"}
	}
	if a.cfg.Google.CSEID == "" {
		return nil, &ConfigError{Missing: "GOOGLE_CSE_ID"}
	}

	a.mu.Lock()
	batches := a.planner.Plan(desiredCount, order, a.rnd)
	a.mu.Unlock()
	if len(batches) == 0 {
		return &ImageSearchResponse{Results: []ImageData{}, TotalResults: "0"}, nil
	}
	resultsNeeded := Budget(batches)

	a.log.WithFields(logrus.Fields{
		"query":   query,
		"order":   order,
		"batches": len(batches),
		"budget":  resultsNeeded,
	}).Info("image search started")

	concurrency := concurrencyOriginal
	if order == SortRandom {
		concurrency = concurrencyRandom
	}

	fetched := make([]*batchResult, len(batches))
	failures := make([]error, len(batches))

	g := new(errgroup.Group)
	g.SetLimit(concurrency)
	for i, b := range batches {
		i, b := i, b
		g.Go(func() error {
			res, err := a.fetchBatch(ctx, query, b)
			if err != nil {
				a.log.WithError(err).WithField("start", b.Start).Warn("search batch failed")
				failures[i] = err
				return nil
			}
			fetched[i] = res
			return nil
		})
	}
	// Batch failures are recorded per slot, never propagated through the
	// group, so one bad batch cannot cancel its siblings.
	_ = g.Wait()

	var succeeded []*batchResult
	for _, r := range fetched {
		if r != nil {
			succeeded = append(succeeded, r)
		}
	}
	if len(succeeded) == 0 {
		for _, err := range failures {
			if err != nil {
				return nil, &UpstreamError{Err: err}
			}
		}
		return nil, &UpstreamError{Err: errors.New("all batch requests failed")}
	}

	// Batches finish in whatever order concurrency allows; sorting by start
	// offset restores determinism for the original presentation.
	if order == SortOriginal {
		sort.Slice(succeeded, func(i, j int) bool { return succeeded[i].start < succeeded[j].start })
	}

	var merged []ImageData
	var totalSearchTime float64
	totalResults := "0"
	for _, b := range succeeded {
		totalSearchTime += b.searchTime
		if totalResults == "0" && b.totalResults != "" {
			totalResults = b.totalResults
		}
		merged = append(merged, b.items...)
	}

	if len(merged) == 0 {
		return &ImageSearchResponse{
			Results:      []ImageData{},
			TotalResults: totalResults,
			SearchTime:   totalSearchTime,
		}, nil
	}

	if order == SortRandom {
		a.mu.Lock()
		shuffleInPlace(merged, a.rnd)
		a.mu.Unlock()
	}
	if len(merged) > resultsNeeded {
		merged = merged[:resultsNeeded]
	}

	chosen := a.verifier.FilterVerified(ctx, merged, desiredCount)
	if len(chosen) == 0 {
		// Verification being unreachable should not turn a working search
		// into an empty one.
		chosen = merged
	}
	if len(chosen) > desiredCount {
		chosen = chosen[:desiredCount]
	}

	payload := &ImageSearchResponse{
		Results:      chosen,
		TotalResults: totalResults,
		SearchTime:   totalSearchTime,
	}

	if len(payload.Results) >= min(desiredCount, resultsNeeded) {
		a.cache.Put(key, payload)
	}

	a.log.WithFields(logrus.Fields{
		"collected": len(merged),
		"returned":  len(payload.Results),
	}).Info("image search finished")

	return payload, nil
}

// fetchBatch issues one backend request and maps the surviving items to
// proxied candidates. The raw upstream link is rewritten to the /proxy
// egress point at construction time.
func (a *Aggregator) fetchBatch(ctx context.Context, query string, b Batch) (*batchResult, error) {
	resp, err := a.backend.Search(ctx, query, b.Num, b.Start)
	if err != nil {
		return nil, err
	}

	items := make([]ImageData, 0, len(resp.Items))
	for _, item := range resp.Items {
		if !a.validator.IsValidImageURL(item.Link, item.Mime) {
			continue
		}
		preview := item.Image.ThumbnailLink
		if preview == "" {
			preview = item.Link
		}
		items = append(items, ImageData{
			Title: item.Title,
			Link:  item.Link,
			Image: ImageInfo{
				ContextLink:   item.Image.ContextLink,
				Height:        item.Image.Height,
				Width:         item.Image.Width,
				ByteSize:      item.Image.ByteSize,
				ThumbnailLink: item.Image.ThumbnailLink,
			},
			ImageURL:   "/proxy?src=" + url.QueryEscape(item.Link),
			PreviewURL: preview,
		})
	}

	return &batchResult{
		start:        b.Start,
		items:        items,
		totalResults: resp.SearchInformation.TotalResults,
		searchTime:   resp.SearchInformation.SearchTime,
	}, nil
}
