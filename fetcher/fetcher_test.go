package fetcher

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jarcoal/httpmock"
	"github.com/reviewpulse/go-collect-reviews/config"
	"github.com/reviewpulse/go-collect-reviews/models"
)

const listingURL = "http://listing.test/product-reviews/B000000000"

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.FetchMode = config.FetchModeHTTP
	cfg.Timeout = 2 * time.Second
	return cfg
}

func docFrom(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse document: %v", err)
	}
	return doc
}

func htmlResponder(body string) httpmock.Responder {
	resp := httpmock.NewStringResponse(200, body)
	resp.Header.Set("Content-Type", "text/html")
	return httpmock.ResponderFromResponse(resp)
}

func listingPage(reviewCount int, hasNext bool) string {
	var b strings.Builder
	b.WriteString("<html><head><title>Customer reviews</title></head><body>")
	for i := 0; i < reviewCount; i++ {
		b.WriteString(`<div id="R00000000` + string(rune('A'+i)) + `" data-hook="review">`)
		b.WriteString(`<span class="a-profile-name">Reader</span>`)
		b.WriteString(`<i data-hook="review-star-rating"><span class="a-icon-alt">4.0 out of 5 stars</span></i>`)
		b.WriteString(`<span data-hook="review-body"><span>useful review text</span></span>`)
		b.WriteString("</div>")
	}
	b.WriteString(`<ul class="a-pagination">`)
	if hasNext {
		b.WriteString(`<li class="a-last"><a href="#">Next</a></li>`)
	} else {
		b.WriteString(`<li class="a-disabled a-last">Next</li>`)
	}
	b.WriteString("</ul></body></html>")
	return b.String()
}

func TestHTTPFetcherParsesListing(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", listingURL, htmlResponder(listingPage(3, true)))

	f := NewHTTPFetcher(testConfig()).WithTransport(transport)
	out := f.FetchListing(context.Background(), listingURL)

	if out.Status != models.FetchOK {
		t.Fatalf("status = %s (err %v), want ok", out.Status, out.Err)
	}
	if len(out.Reviews) != 3 {
		t.Fatalf("reviews = %d, want 3", len(out.Reviews))
	}
	if !out.HasNext {
		t.Fatalf("expected hasNext")
	}
}

func TestHTTPFetcherLastPage(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", listingURL, htmlResponder(listingPage(2, false)))

	f := NewHTTPFetcher(testConfig()).WithTransport(transport)
	out := f.FetchListing(context.Background(), listingURL)

	if out.Status != models.FetchOK {
		t.Fatalf("status = %s, want ok", out.Status)
	}
	if out.HasNext {
		t.Fatalf("disabled last-page control should mean no next page")
	}
}

func TestHTTPFetcherCaptchaSignals(t *testing.T) {
	pages := map[string]string{
		"title": `<html><head><title>Robot Check</title></head><body><p>hello</p></body></html>`,
		"form": `<html><body><form method="get" action="/errors/validateCaptcha">` +
			`<input type="text"></form></body></html>`,
		"body text": `<html><body><p>Enter the characters you see below</p></body></html>`,
	}

	for name, page := range pages {
		t.Run(name, func(t *testing.T) {
			transport := httpmock.NewMockTransport()
			transport.RegisterResponder("GET", listingURL, htmlResponder(page))

			f := NewHTTPFetcher(testConfig()).WithTransport(transport)
			out := f.FetchListing(context.Background(), listingURL)
			if out.Status != models.FetchCaptcha {
				t.Fatalf("status = %s, want captcha", out.Status)
			}
		})
	}
}

func TestHTTPFetcherLoadErrors(t *testing.T) {
	tests := []struct {
		name      string
		responder httpmock.Responder
	}{
		{name: "http 503", responder: httpmock.NewStringResponder(503, "unavailable")},
		{name: "empty body", responder: htmlResponder("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := httpmock.NewMockTransport()
			transport.RegisterResponder("GET", listingURL, tt.responder)

			f := NewHTTPFetcher(testConfig()).WithTransport(transport)
			out := f.FetchListing(context.Background(), listingURL)
			if out.Status != models.FetchLoadError {
				t.Fatalf("status = %s, want load_error", out.Status)
			}
		})
	}
}

func TestHTTPFetcherTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = 50 * time.Millisecond

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", listingURL,
		htmlResponder(listingPage(1, false)).Delay(500*time.Millisecond))

	f := NewHTTPFetcher(cfg).WithTransport(transport)
	out := f.FetchListing(context.Background(), listingURL)
	if out.Status != models.FetchTimeout {
		t.Fatalf("status = %s (err %v), want timeout", out.Status, out.Err)
	}
}

func TestDetectChallengeNegative(t *testing.T) {
	doc := docFrom(t, `<html><head><title>Customer reviews</title></head>`+
		`<body><form action="/submit"></form><p>plain page</p></body></html>`)
	if DetectChallenge(doc) {
		t.Fatalf("plain page flagged as challenge")
	}
}

func TestDetectChallengeCaseSensitive(t *testing.T) {
	doc := docFrom(t, `<html><head><title>robot check</title></head><body><p>x</p></body></html>`)
	if DetectChallenge(doc) {
		t.Fatalf("lowercase phrase should not match")
	}
}

func TestHasNextPageMissingPagination(t *testing.T) {
	doc := docFrom(t, "<html><body><p>no pagination</p></body></html>")
	if HasNextPage(doc) {
		t.Fatalf("expected no next page")
	}
}

func TestErrorTypeLabels(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrChallenge, "captcha"},
		{ErrTimeout{Err: context.DeadlineExceeded}, "timeout"},
		{ErrLoad{Err: context.Canceled}, "load_error"},
		{context.Canceled, "other"},
		{nil, "unknown"},
	}
	for _, tt := range tests {
		if got := errorTypeLabel(tt.err); got != tt.want {
			t.Fatalf("errorTypeLabel(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
