package collector

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/reviewpulse/go-collect-reviews/config"
	"github.com/reviewpulse/go-collect-reviews/fetcher"
	"github.com/reviewpulse/go-collect-reviews/models"
	"github.com/reviewpulse/go-collect-reviews/product"
)

// Engine owns the command mailbox. Commands arrive over a channel and are
// handled one at a time; at most one collection session runs at once. A
// start command while a session is active is rejected with an error event,
// a stop command flags the active session and returns immediately.
type Engine struct {
	cfg      *config.Config
	fetcher  fetcher.PageFetcher
	reporter Reporter
	metrics  *Metrics
	logger   *slog.Logger

	commands chan models.Command

	mu      sync.Mutex
	active  *CollectionSession
	results []models.CollectionResult
	wg      sync.WaitGroup
}

// NewEngine builds an engine over the given fetcher and reporter.
func NewEngine(cfg *config.Config, pf fetcher.PageFetcher, reporter Reporter, metrics *Metrics, logger *slog.Logger) *Engine {
	if reporter == nil {
		reporter = NopReporter{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:      cfg,
		fetcher:  pf,
		reporter: reporter,
		metrics:  metrics,
		logger:   logger,
		commands: make(chan models.Command, 16),
	}
}

// Submit queues a command for the mailbox. It blocks only if the mailbox
// buffer is full.
func (e *Engine) Submit(cmd models.Command) {
	e.commands <- cmd
}

// Run consumes commands until the context ends. On shutdown the active
// session is flagged to stop and Run waits for it to finish, so the
// completion event is always delivered.
func (e *Engine) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			e.stopActive()
			e.wg.Wait()
			return
		case cmd := <-e.commands:
			switch c := cmd.(type) {
			case models.StartCollectionCommand:
				e.handleStart(ctx, c)
			case models.StopCommand:
				e.stopActive()
			default:
				e.logger.Warn("unknown command discarded", slog.String("type", fmt.Sprintf("%T", cmd)))
			}
		}
	}
}

// Results returns the results of all finished sessions, oldest first.
func (e *Engine) Results() []models.CollectionResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.CollectionResult, len(e.results))
	copy(out, e.results)
	return out
}

func (e *Engine) handleStart(ctx context.Context, cmd models.StartCollectionCommand) {
	e.mu.Lock()
	if e.active != nil && !e.active.State().Terminal() {
		e.mu.Unlock()
		e.reporter.Failure(models.ErrorEvent{Message: "collection already running"})
		return
	}
	e.mu.Unlock()

	identity, snapshot, err := e.resolveIdentity(ctx, cmd)
	if err != nil {
		e.logger.Error("identity resolution failed", slog.String("error", err.Error()))
		e.reporter.Complete(models.CompletionEvent{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	session, err := NewSession(*identity, cmd.Config, e.cfg.DedupeMaxSize)
	if err != nil {
		e.reporter.Complete(models.CompletionEvent{
			Success: false,
			Error:   fmt.Sprintf("create session: %v", err),
		})
		return
	}
	session.SetSnapshot(snapshot)

	e.mu.Lock()
	e.active = session
	e.mu.Unlock()

	runner := New(e.cfg, e.fetcher, e.reporter, e.metrics, e.logger)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		result := runner.Run(ctx, session)
		e.mu.Lock()
		e.results = append(e.results, result)
		e.mu.Unlock()
	}()
}

// resolveIdentity returns the product identity for a start command. An
// explicit identity wins; otherwise the product page at ProductURL is
// fetched and the identity and snapshot are extracted from its document.
func (e *Engine) resolveIdentity(ctx context.Context, cmd models.StartCollectionCommand) (*models.ProductIdentity, *models.ProductSnapshot, error) {
	if cmd.Identity != nil {
		if !cmd.Identity.Valid() {
			return nil, nil, fmt.Errorf("invalid product identity %q", cmd.Identity.ID)
		}
		return cmd.Identity, nil, nil
	}
	if cmd.ProductURL == "" {
		return nil, nil, fmt.Errorf("start command needs an identity or a product URL")
	}

	doc, err := e.fetcher.FetchDocument(ctx, cmd.ProductURL)
	if err != nil {
		return nil, nil, fmt.Errorf("load product page: %w", err)
	}
	identity := product.ResolveIdentity(doc, cmd.ProductURL)
	if identity == nil {
		return nil, nil, fmt.Errorf("no product identifier found at %s", cmd.ProductURL)
	}
	return identity, product.ExtractSnapshot(doc), nil
}

func (e *Engine) stopActive() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active != nil {
		e.active.RequestStop()
	}
}
