package collector

import (
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/reviewpulse/go-collect-reviews/models"
)

// CollectionSession carries the mutable state of one collection run: the
// cross-segment dedupe set, accumulated records, counters, and the lifecycle
// state. State moves forward only; a terminal state is never overwritten.
type CollectionSession struct {
	Identity models.ProductIdentity
	Config   models.CollectionConfig

	mu       sync.Mutex
	state    models.SessionState
	seen     *lru.Cache[string, struct{}]
	records  []*models.ReviewRecord
	snapshot *models.ProductSnapshot

	stop atomic.Bool

	startTime    time.Time
	pagesFetched int
	retryCount   int
	errorsByType map[string]int
	captcha      bool
}

// NewSession builds an idle session. dedupeMax bounds the seen-ID set; once
// the bound is hit the oldest IDs are evicted, which can readmit a very old
// duplicate but keeps memory flat on long runs.
func NewSession(identity models.ProductIdentity, cfg models.CollectionConfig, dedupeMax int) (*CollectionSession, error) {
	seen, err := lru.New[string, struct{}](dedupeMax)
	if err != nil {
		return nil, err
	}
	return &CollectionSession{
		Identity:     identity,
		Config:       cfg,
		state:        models.StateIdle,
		seen:         seen,
		errorsByType: make(map[string]int),
	}, nil
}

// MarkSeen records a review ID and reports whether it was new.
func (s *CollectionSession) MarkSeen(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen.Contains(id) {
		return false
	}
	s.seen.Add(id, struct{}{})
	return true
}

// AddRecord appends a deduplicated record to the session result set.
func (s *CollectionSession) AddRecord(r *models.ReviewRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
}

// Records returns a copy of the accumulated records.
func (s *CollectionSession) Records() []*models.ReviewRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.ReviewRecord, len(s.records))
	copy(out, s.records)
	return out
}

// SeenCount reports how many distinct review IDs the session has observed.
func (s *CollectionSession) SeenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen.Len()
}

// RequestStop flags the session for cooperative shutdown. The collector
// checks the flag between page operations; the in-flight fetch finishes.
func (s *CollectionSession) RequestStop() {
	s.stop.Store(true)
}

// StopRequested reports whether a stop has been flagged.
func (s *CollectionSession) StopRequested() bool {
	return s.stop.Load()
}

// State returns the current lifecycle state.
func (s *CollectionSession) State() models.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// setState advances the lifecycle. Transitions out of a terminal state are
// ignored, so the first terminal outcome wins.
func (s *CollectionSession) setState(next models.SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return
	}
	s.state = next
}

// SetSnapshot stores the product snapshot captured before collection.
func (s *CollectionSession) SetSnapshot(snap *models.ProductSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snap
}

// Snapshot returns the stored product snapshot, if one was captured.
func (s *CollectionSession) Snapshot() *models.ProductSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

func (s *CollectionSession) markStarted() {
	s.mu.Lock()
	s.startTime = time.Now()
	s.mu.Unlock()
	s.setState(models.StateRunning)
}

func (s *CollectionSession) countPage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pagesFetched++
}

func (s *CollectionSession) countRetry() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retryCount++
}

func (s *CollectionSession) countError(errType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorsByType[errType]++
}

func (s *CollectionSession) markCaptcha() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.captcha = true
}

func (s *CollectionSession) sawCaptcha() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.captcha
}

// Result assembles the final immutable result of the run.
func (s *CollectionSession) Result() models.CollectionResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	errs := make(map[string]int, len(s.errorsByType))
	for k, v := range s.errorsByType {
		errs[k] = v
	}
	records := make([]*models.ReviewRecord, len(s.records))
	copy(records, s.records)

	return models.CollectionResult{
		Identity:     s.Identity,
		Snapshot:     s.snapshot,
		State:        s.state,
		Records:      records,
		StartTime:    s.startTime,
		EndTime:      time.Now(),
		PagesFetched: s.pagesFetched,
		RetryCount:   s.retryCount,
		ErrorsByType: errs,
		Captcha:      s.captcha,
	}
}
