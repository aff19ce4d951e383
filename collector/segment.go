package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/reviewpulse/go-collect-reviews/models"
)

// segmentOutcome classifies how one star segment ended.
type segmentOutcome int

const (
	segmentCompleted segmentOutcome = iota
	segmentStopped
	segmentAborted
	segmentCaptcha
)

// runSegment walks one star segment page by page. It terminates early after
// two consecutive pages with no new records or a disabled pagination
// control, aborts the
// segment after the consecutive-error budget is spent, and aborts the whole
// session on a bot challenge. Transient errors retry the same page after a
// backoff delay; the page number only advances on a successful fetch.
func (c *Collector) runSegment(ctx context.Context, session *CollectionSession, star, segmentIndex, totalSegments int) segmentOutcome {
	maxPages := session.Config.PagesPerStar
	emptyStreak := 0
	errStreak := 0

	page := 1
	for page <= maxPages {
		if session.StopRequested() || ctx.Err() != nil {
			return segmentStopped
		}

		pageURL, err := ListingURL(session.Identity.Marketplace, session.Identity.ID, star, page)
		if err != nil {
			c.reporter.Failure(models.ErrorEvent{Message: err.Error()})
			return segmentAborted
		}

		c.reporter.Progress(models.ProgressEvent{
			Star:         star,
			Page:         page,
			MaxPages:     maxPages,
			Message:      fmt.Sprintf("collecting %d-star reviews, page %d/%d", star, page, maxPages),
			TotalReviews: session.SeenCount(),
			Percent:      overallPercent(segmentIndex, page-1, totalSegments, maxPages),
		})

		started := time.Now()
		outcome := c.fetcher.FetchListing(ctx, pageURL)
		c.metrics.observeFetch(time.Since(started).Seconds())
		c.metrics.pageFetched(outcome.Status.String())
		session.countPage()

		switch outcome.Status {
		case models.FetchCaptcha:
			c.metrics.captchaHit()
			session.markCaptcha()
			session.RequestStop()
			c.reporter.Failure(models.ErrorEvent{Message: "bot challenge detected, collection aborted"})
			return segmentCaptcha

		case models.FetchOK:
			errStreak = 0
			fresh := 0
			for _, record := range outcome.Reviews {
				if !session.MarkSeen(record.ReviewID) {
					c.metrics.duplicateDropped()
					continue
				}
				session.AddRecord(record)
				c.metrics.reviewCollected()
				fresh++
			}
			c.logger.Debug("page collected",
				slog.Int("star", star),
				slog.Int("page", page),
				slog.Int("parsed", len(outcome.Reviews)),
				slog.Int("fresh", fresh),
			)

			// A page of nothing but duplicates signals end of data the same
			// way an empty page does.
			if fresh == 0 {
				emptyStreak++
				if emptyStreak >= c.maxEmptyPages {
					c.logger.Info("segment exhausted",
						slog.Int("star", star),
						slog.Int("page", page),
					)
					return segmentCompleted
				}
			} else {
				emptyStreak = 0
			}

			if !outcome.HasNext {
				return segmentCompleted
			}

			page++
			if page <= maxPages {
				if err := c.sleep(ctx, c.pacer.Delay(c.profiles.Page)); err != nil {
					return segmentStopped
				}
			}

		default:
			errType := outcome.Status.String()
			session.countError(errType)
			c.metrics.errorSeen(errType)
			c.reporter.Failure(models.ErrorEvent{
				Message: fmt.Sprintf("page %d of %d-star segment failed: %v", page, star, outcome.Err),
			})

			errStreak++
			if errStreak >= c.maxConsecutiveErrors {
				c.logger.Warn("segment aborted after consecutive errors",
					slog.Int("star", star),
					slog.Int("page", page),
					slog.Int("errors", errStreak),
				)
				return segmentAborted
			}

			session.countRetry()
			c.metrics.retried()
			if err := c.sleep(ctx, c.pacer.Delay(c.profiles.Backoff)); err != nil {
				return segmentStopped
			}
		}
	}

	return segmentCompleted
}

// overallPercent maps completed pages across all segments onto 0..100.
func overallPercent(segmentIndex, pagesDone, totalSegments, pagesPerSegment int) float64 {
	total := totalSegments * pagesPerSegment
	if total == 0 {
		return 0
	}
	done := segmentIndex*pagesPerSegment + pagesDone
	return float64(done) * 100 / float64(total)
}
