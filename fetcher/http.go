package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/reviewpulse/go-collect-reviews/config"
	"github.com/reviewpulse/go-collect-reviews/models"
)

// HTTPFetcher loads pages over plain HTTP. It serves server-rendered
// listings and is the deterministic implementation used in tests via an
// injected transport.
type HTTPFetcher struct {
	cfg       *config.Config
	transport http.RoundTripper
}

// NewHTTPFetcher builds an HTTP fetcher configured from cfg.
func NewHTTPFetcher(cfg *config.Config) *HTTPFetcher {
	return &HTTPFetcher{cfg: cfg}
}

// WithTransport overrides the HTTP transport; used by tests to plug in mock
// responders.
func (f *HTTPFetcher) WithTransport(rt http.RoundTripper) *HTTPFetcher {
	f.transport = rt
	return f
}

// FetchListing implements PageFetcher.
func (f *HTTPFetcher) FetchListing(ctx context.Context, pageURL string) models.FetchOutcome {
	return listingOutcome(f.FetchDocument(ctx, pageURL))
}

// FetchDocument loads one page through a single-use collector. Each call
// gets a fresh collector so retries of the same URL are never suppressed by
// colly's visited-URL cache.
func (f *HTTPFetcher) FetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, ErrLoad{Err: err}
	}

	collector := colly.NewCollector(colly.UserAgent(f.cfg.UserAgent))
	collector.SetRequestTimeout(f.cfg.Timeout)
	collector.IgnoreRobotsTxt = true
	if f.transport != nil {
		collector.WithTransport(f.transport)
	} else {
		collector.WithTransport(&http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   f.cfg.Timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        4,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		})
	}

	var (
		body       []byte
		statusCode int
		fetchErr   error
	)
	collector.OnResponse(func(r *colly.Response) {
		body = r.Body
		statusCode = r.StatusCode
	})
	collector.OnError(func(r *colly.Response, err error) {
		fetchErr = err
		if r != nil {
			statusCode = r.StatusCode
		}
	})

	if err := collector.Visit(pageURL); err != nil {
		fetchErr = err
	}
	collector.Wait()

	if fetchErr != nil {
		return nil, classifyTransportError(fetchErr, statusCode)
	}
	if statusCode >= http.StatusBadRequest {
		return nil, ErrLoad{Err: fmt.Errorf("http status %d", statusCode)}
	}
	if len(body) == 0 {
		return nil, ErrLoad{Err: errors.New("empty response body")}
	}
	return parseDocument(string(body))
}

func classifyTransportError(err error, statusCode int) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}
	if statusCode != 0 {
		return ErrLoad{Err: fmt.Errorf("http status %d: %w", statusCode, err)}
	}
	return ErrLoad{Err: err}
}
