package product

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/reviewpulse/go-collect-reviews/models"
)

const minBulletLength = 10

var (
	ratingTokenPattern = regexp.MustCompile(`([0-9]+(?:[.,][0-9]+)?)`)
	numericOnlyPattern = regexp.MustCompile(`^[\d.,%\s]+$`)
)

var titleSelectors = []string{
	"#productTitle",
	"#title span",
	"h1.product-title",
}

// (selector, attribute) pairs tried in order for the product image.
var imageStrategies = [][2]string{
	{"#landingImage", "src"},
	{"#landingImage", "data-old-hires"},
	{"#imgBlkFront", "src"},
	{"#main-image", "src"},
}

var ratingSelectors = []string{
	`span[data-hook="rating-out-of-text"]`,
	"#acrPopover span.a-icon-alt",
	"i.a-icon-star span.a-icon-alt",
}

var priceSelectors = []string{
	"span.a-price span.a-offscreen",
	"#priceblock_ourprice",
	"#priceblock_dealprice",
	"#price_inside_buybox",
}

// ExtractSnapshot captures product metadata from a loaded document. Each
// field tries its strategies in order and keeps the first plausible value;
// missing fields stay zero, never synthesized.
func ExtractSnapshot(doc *goquery.Document) *models.ProductSnapshot {
	if doc == nil {
		return nil
	}
	return &models.ProductSnapshot{
		Title:         firstText(doc, titleSelectors),
		ImageURL:      extractImage(doc),
		AverageRating: extractRating(doc),
		Price:         firstText(doc, priceSelectors),
		Bullets:       extractBullets(doc),
	}
}

func firstText(doc *goquery.Document, selectors []string) string {
	for _, selector := range selectors {
		if text := strings.TrimSpace(doc.Find(selector).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func extractImage(doc *goquery.Document) string {
	for _, strategy := range imageStrategies {
		if value, ok := doc.Find(strategy[0]).Attr(strategy[1]); ok {
			if value = strings.TrimSpace(value); value != "" {
				return value
			}
		}
	}
	return ""
}

// extractRating rejects out-of-range matches and falls through to the next
// strategy.
func extractRating(doc *goquery.Document) *float64 {
	for _, selector := range ratingSelectors {
		text := doc.Find(selector).First().Text()
		match := ratingTokenPattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		value, err := strconv.ParseFloat(strings.ReplaceAll(match[1], ",", "."), 64)
		if err != nil || value < 0 || value > 5 {
			continue
		}
		return &value
	}
	return nil
}

func extractBullets(doc *goquery.Document) []string {
	var bullets []string
	seen := make(map[string]struct{})

	doc.Find("#feature-bullets li span.a-list-item").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if len(text) < minBulletLength {
			return
		}
		if numericOnlyPattern.MatchString(text) {
			return
		}
		if _, dup := seen[text]; dup {
			return
		}
		seen[text] = struct{}{}
		bullets = append(bullets, text)
	})

	return bullets
}
