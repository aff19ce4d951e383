// Package product extracts the product identity and metadata snapshot from a
// loaded document.
package product

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/reviewpulse/go-collect-reviews/models"
)

// URL shapes that carry the 10-character product id.
var urlIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/dp/([A-Z0-9]{10})(?:[/?]|$)`),
	regexp.MustCompile(`/gp/product/([A-Z0-9]{10})(?:[/?]|$)`),
	regexp.MustCompile(`/product-reviews/([A-Z0-9]{10})(?:[/?]|$)`),
	regexp.MustCompile(`[?&]asin=([A-Z0-9]{10})(?:&|$)`),
}

// Hidden form fields known to carry the product id.
var hiddenFieldSelectors = []string{
	"input#ASIN",
	`input[name="ASIN"]`,
	`input[name="asin"]`,
}

// ResolveIdentity derives the canonical product identity from weak signals on
// the document, trying each strategy in order. Returns nil when every
// strategy fails; the caller must refuse to start a session in that case.
func ResolveIdentity(doc *goquery.Document, pageURL string) *models.ProductIdentity {
	if doc == nil {
		return nil
	}

	canonical, _ := doc.Find(`link[rel="canonical"]`).Attr("href")

	id := firstProductID(
		func() string { return hiddenFieldID(doc) },
		func() string { return urlID(pageURL) },
		func() string { return urlID(canonical) },
		func() string { return doc.Find("body").AttrOr("data-asin", "") },
		func() string { return doc.Find("#averageCustomerReviews").AttrOr("data-asin", "") },
	)
	if id == "" {
		return nil
	}

	return &models.ProductIdentity{
		ID:          id,
		Marketplace: marketplaceFor(pageURL, canonical),
	}
}

func firstProductID(strategies ...func() string) string {
	for _, strategy := range strategies {
		if id := strings.TrimSpace(strategy()); models.ValidProductID(id) {
			return id
		}
	}
	return ""
}

func hiddenFieldID(doc *goquery.Document) string {
	for _, selector := range hiddenFieldSelectors {
		if value, ok := doc.Find(selector).Attr("value"); ok {
			return value
		}
	}
	return ""
}

func urlID(raw string) string {
	if raw == "" {
		return ""
	}
	for _, pattern := range urlIDPatterns {
		if match := pattern.FindStringSubmatch(raw); match != nil {
			return match[1]
		}
	}
	return ""
}

func marketplaceFor(pageURL, canonical string) models.Marketplace {
	for _, raw := range []string{pageURL, canonical} {
		if raw == "" {
			continue
		}
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Host == "" {
			continue
		}
		if m, ok := models.MarketplaceForHost(parsed.Host); ok {
			return m
		}
	}
	return models.MarketplaceUS
}
