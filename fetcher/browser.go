package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/reviewpulse/go-collect-reviews/config"
	"github.com/reviewpulse/go-collect-reviews/models"
)

// BrowserFetcher renders pages in an invisible headless Chrome tab. Each
// fetch allocates its own tab bound to a unique session name and tears it
// down on every exit path; no tab outlives its fetch.
type BrowserFetcher struct {
	cfg     *config.Config
	counter atomic.Uint64
}

// NewBrowserFetcher builds a browser-backed fetcher configured from cfg.
func NewBrowserFetcher(cfg *config.Config) *BrowserFetcher {
	return &BrowserFetcher{cfg: cfg}
}

// FetchListing implements PageFetcher.
func (f *BrowserFetcher) FetchListing(ctx context.Context, pageURL string) models.FetchOutcome {
	return listingOutcome(f.FetchDocument(ctx, pageURL))
}

// FetchDocument walks the surface lifecycle: allocate a tab, navigate, wait
// for the load event plus the settle delay so client-side rendering can
// finish, then snapshot the DOM. The timeout races the load; whichever
// resolves first wins and the tab is destroyed either way.
func (f *BrowserFetcher) FetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(f.cfg.UserAgent),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(fetchCtx, opts...)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}),
	)
	defer cancelTab()

	slog.Debug("surface allocated",
		slog.String("session", fmt.Sprintf("collect-%d", f.counter.Add(1))),
		slog.String("url", pageURL),
	)

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(f.cfg.SettleDelay),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || fetchCtx.Err() != nil {
			return nil, ErrTimeout{Err: err}
		}
		return nil, ErrLoad{Err: err}
	}
	if html == "" {
		return nil, ErrLoad{Err: errors.New("surface produced no document")}
	}
	return parseDocument(html)
}
