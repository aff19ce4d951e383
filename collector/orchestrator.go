// Package collector drives review collection sessions: it walks star
// segments in ascending order, deduplicates records across segments, paces
// requests, and reports progress until the session reaches a terminal state.
package collector

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/reviewpulse/go-collect-reviews/config"
	"github.com/reviewpulse/go-collect-reviews/fetcher"
	"github.com/reviewpulse/go-collect-reviews/models"
	"github.com/reviewpulse/go-collect-reviews/pacing"
)

// Collector runs collection sessions over a page fetcher. One collector
// serves one session at a time; the engine serializes access.
type Collector struct {
	fetcher  fetcher.PageFetcher
	pacer    *pacing.Controller
	profiles pacing.Profiles
	reporter Reporter
	metrics  *Metrics
	logger   *slog.Logger

	maxConsecutiveErrors int
	maxEmptyPages        int

	// sleep is swapped out by tests so pacing does not slow the suite.
	sleep func(ctx context.Context, d time.Duration) error
}

// New builds a collector. reporter and metrics may be nil; a nil reporter
// discards events and a nil metrics records nothing.
func New(cfg *config.Config, pf fetcher.PageFetcher, reporter Reporter, metrics *Metrics, logger *slog.Logger) *Collector {
	if reporter == nil {
		reporter = NopReporter{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		fetcher:              pf,
		pacer:                pacing.NewController(),
		profiles:             pacing.ProfilesFor(models.SpeedMode(cfg.SpeedMode)),
		reporter:             reporter,
		metrics:              metrics,
		logger:               logger,
		maxConsecutiveErrors: cfg.MaxConsecutiveErrors,
		maxEmptyPages:        cfg.MaxEmptyPages,
		sleep:                sleepCtx,
	}
}

// Run executes the session to a terminal state and emits the completion
// event exactly once. Star segments run in ascending order; a bot challenge
// or an exhausted error budget in every segment fails the session, a stop
// request ends it gracefully with whatever was collected.
func (c *Collector) Run(ctx context.Context, session *CollectionSession) models.CollectionResult {
	session.markStarted()
	if session.Config.SpeedMode.Valid() {
		c.profiles = pacing.ProfilesFor(session.Config.SpeedMode)
	}

	stars := append([]int(nil), session.Config.Stars...)
	sort.Ints(stars)

	c.logger.Info("collection started",
		slog.String("product_id", session.Identity.ID),
		slog.String("marketplace", string(session.Identity.Marketplace)),
		slog.Any("stars", stars),
		slog.Int("pages_per_star", session.Config.PagesPerStar),
	)

	aborted := 0
	stopped := false

segments:
	for i, star := range stars {
		switch c.runSegment(ctx, session, star, i, len(stars)) {
		case segmentCaptcha:
			break segments
		case segmentStopped:
			stopped = true
			break segments
		case segmentAborted:
			aborted++
		case segmentCompleted:
		}

		if i < len(stars)-1 {
			if err := c.sleep(ctx, c.pacer.Delay(c.profiles.Transition)); err != nil {
				stopped = true
				break segments
			}
		}
	}

	switch {
	case session.sawCaptcha():
		session.setState(models.StateFailed)
	case stopped || session.StopRequested() || ctx.Err() != nil:
		session.setState(models.StateStopped)
	case aborted == len(stars) && len(stars) > 0:
		session.setState(models.StateFailed)
	default:
		session.setState(models.StateCompleted)
	}

	result := session.Result()
	c.logger.Info("collection finished",
		slog.String("state", result.State.String()),
		slog.Int("reviews", len(result.Records)),
		slog.Int("pages_fetched", result.PagesFetched),
		slog.Int("retries", result.RetryCount),
	)

	c.reporter.Complete(completionEvent(result))
	return result
}

// completionEvent maps a final result onto the terminal event.
func completionEvent(result models.CollectionResult) models.CompletionEvent {
	e := models.CompletionEvent{
		Success:     result.State != models.StateFailed,
		ReviewCount: len(result.Records),
		Records:     result.Records,
		Snapshot:    result.Snapshot,
	}
	if result.State == models.StateFailed {
		if result.Captcha {
			e.Error = "bot challenge detected"
		} else {
			e.Error = "all star segments aborted"
		}
	}
	return e
}

// sleepCtx waits for d or until the context ends, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
