package collector

import (
	"log/slog"

	"github.com/reviewpulse/go-collect-reviews/models"
)

// Reporter receives collection events as the run advances. Progress and
// Failure may be emitted many times; Complete is emitted exactly once per
// session, as its last event.
type Reporter interface {
	Progress(e models.ProgressEvent)
	Failure(e models.ErrorEvent)
	Complete(e models.CompletionEvent)
}

// SlogReporter writes events to structured logs.
type SlogReporter struct {
	Logger *slog.Logger
}

func (r SlogReporter) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r SlogReporter) Progress(e models.ProgressEvent) {
	r.logger().Info("progress",
		slog.Int("star", e.Star),
		slog.Int("page", e.Page),
		slog.Int("max_pages", e.MaxPages),
		slog.Int("total_reviews", e.TotalReviews),
		slog.Float64("percent", e.Percent),
		slog.String("message", e.Message),
	)
}

func (r SlogReporter) Failure(e models.ErrorEvent) {
	r.logger().Error("collection error", slog.String("message", e.Message))
}

func (r SlogReporter) Complete(e models.CompletionEvent) {
	r.logger().Info("collection complete",
		slog.Bool("success", e.Success),
		slog.Int("review_count", e.ReviewCount),
		slog.String("error", e.Error),
	)
}

// ChannelReporter forwards events over channels. Progress and Failure drop
// when the consumer lags so a slow listener never stalls collection; the
// completion event blocks because it must not be lost.
type ChannelReporter struct {
	ProgressCh   chan models.ProgressEvent
	FailureCh    chan models.ErrorEvent
	CompletionCh chan models.CompletionEvent
}

// NewChannelReporter builds a reporter with buffered event channels.
func NewChannelReporter(buffer int) *ChannelReporter {
	return &ChannelReporter{
		ProgressCh:   make(chan models.ProgressEvent, buffer),
		FailureCh:    make(chan models.ErrorEvent, buffer),
		CompletionCh: make(chan models.CompletionEvent, 1),
	}
}

func (r *ChannelReporter) Progress(e models.ProgressEvent) {
	select {
	case r.ProgressCh <- e:
	default:
	}
}

func (r *ChannelReporter) Failure(e models.ErrorEvent) {
	select {
	case r.FailureCh <- e:
	default:
	}
}

func (r *ChannelReporter) Complete(e models.CompletionEvent) {
	r.CompletionCh <- e
}

// NopReporter discards all events.
type NopReporter struct{}

func (NopReporter) Progress(models.ProgressEvent)   {}
func (NopReporter) Failure(models.ErrorEvent)       {}
func (NopReporter) Complete(models.CompletionEvent) {}
