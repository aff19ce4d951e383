// Package fetcher loads listing pages into a rendering surface, detects bot
// challenges, and hands parsed documents to the review parser.
//
// A fetch walks a fixed state machine: create the surface, load the URL,
// wait for rendering to settle, inspect the document, and destroy the
// surface on every exit path.
package fetcher

import (
	"context"
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/reviewpulse/go-collect-reviews/models"
	"github.com/reviewpulse/go-collect-reviews/reviews"
)

// Bot-challenge signals; any one match aborts the session. All phrase
// matches are case-sensitive.
const (
	challengeTitlePhrase = "Robot Check"
	challengeFormAction  = "/errors/validateCaptcha"
	challengeBodyPhrase  = "Enter the characters you see below"
)

// PageFetcher loads one page at a time. Implementations own the rendering
// surface for the duration of a single call and must never run two fetches
// concurrently over the same surface.
type PageFetcher interface {
	// FetchListing loads a review listing page and returns the classified
	// outcome: parsed records and pagination state, or a failure tag.
	FetchListing(ctx context.Context, pageURL string) models.FetchOutcome

	// FetchDocument loads an arbitrary page and returns its document, or
	// ErrChallenge / ErrTimeout / ErrLoad.
	FetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error)
}

// DetectChallenge reports whether the document shows any bot-challenge
// signal: the known title phrase, the known form action, or the known body
// sentence.
func DetectChallenge(doc *goquery.Document) bool {
	if doc == nil {
		return false
	}
	if strings.Contains(doc.Find("title").Text(), challengeTitlePhrase) {
		return true
	}
	challenged := false
	doc.Find("form").EachWithBreak(func(_ int, form *goquery.Selection) bool {
		if action, ok := form.Attr("action"); ok && strings.Contains(action, challengeFormAction) {
			challenged = true
			return false
		}
		return true
	})
	if challenged {
		return true
	}
	return strings.Contains(doc.Find("body").Text(), challengeBodyPhrase)
}

// HasNextPage reports whether a non-disabled last-page control exists.
func HasNextPage(doc *goquery.Document) bool {
	if doc == nil {
		return false
	}
	last := doc.Find("ul.a-pagination li.a-last")
	if last.Length() == 0 {
		return false
	}
	return !last.HasClass("a-disabled")
}

// parseDocument builds a document from rendered HTML and rejects pages with
// no accessible body.
func parseDocument(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, ErrLoad{Err: err}
	}
	body := doc.Find("body")
	if body.Length() == 0 || (body.Children().Length() == 0 && strings.TrimSpace(body.Text()) == "") {
		return nil, ErrLoad{Err: errors.New("document has no accessible body")}
	}
	if DetectChallenge(doc) {
		return nil, ErrChallenge
	}
	return doc, nil
}

// listingOutcome maps the document-load result into the per-page outcome
// consumed by the segment collector.
func listingOutcome(doc *goquery.Document, err error) models.FetchOutcome {
	if err != nil {
		return outcomeFromError(err)
	}
	return models.FetchOutcome{
		Status:  models.FetchOK,
		Reviews: reviews.ParsePage(doc),
		HasNext: HasNextPage(doc),
	}
}

func outcomeFromError(err error) models.FetchOutcome {
	switch {
	case errors.Is(err, ErrChallenge):
		return models.FetchOutcome{Status: models.FetchCaptcha, Err: err}
	case isTimeout(err):
		return models.FetchOutcome{Status: models.FetchTimeout, Err: err}
	default:
		return models.FetchOutcome{Status: models.FetchLoadError, Err: err}
	}
}

func isTimeout(err error) bool {
	var timeout ErrTimeout
	return errors.As(err, &timeout)
}
