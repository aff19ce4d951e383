// Package reviews parses structured review records out of listing documents.
package reviews

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/reviewpulse/go-collect-reviews/models"
)

const reviewNodeSelector = `div[data-hook="review"], div.review`

// Ordered body strategies; the first non-empty text wins.
var bodySelectors = []string{
	`span[data-hook="review-body"] span`,
	`span[data-hook="review-body"]`,
	"div.review-text-content span",
	"span.review-text",
}

var ratingSelectors = []string{
	`i[data-hook="review-star-rating"] span.a-icon-alt`,
	`i[data-hook="cmps-review-star-rating"] span.a-icon-alt`,
	".review-rating .a-icon-alt",
}

var titleSelectors = []string{
	`a[data-hook="review-title"] span:not(.a-icon-alt)`,
	`span[data-hook="review-title"] span:not(.a-icon-alt)`,
	`span[data-hook="review-title"]`,
}

var (
	ratingTokenPattern  = regexp.MustCompile(`([0-9]+(?:[.,][0-9]+)?)`)
	trailingDatePattern = regexp.MustCompile(`\bon\s+(.+)$`)
	votesTokenPattern   = regexp.MustCompile(`([\d,]+)`)
)

// ParsePage extracts every parseable review record from a loaded document.
// Individual node failures are logged and skipped; they never abort the page.
func ParsePage(doc *goquery.Document) []*models.ReviewRecord {
	if doc == nil {
		return nil
	}

	var records []*models.ReviewRecord
	doc.Find(reviewNodeSelector).Each(func(i int, node *goquery.Selection) {
		record, err := parseNode(node)
		if err != nil {
			slog.Debug("skipping review node", slog.Int("index", i), slog.Any("error", err))
			return
		}
		if record != nil {
			records = append(records, record)
		}
	})
	return records
}

// parseNode returns (nil, nil) for nodes without enough content to keep.
func parseNode(node *goquery.Selection) (*models.ReviewRecord, error) {
	record := &models.ReviewRecord{
		Author:           extractAuthor(node),
		Rating:           extractRating(node),
		Title:            firstText(node, titleSelectors),
		Body:             firstText(node, bodySelectors),
		ReviewDate:       extractDate(node),
		VerifiedPurchase: node.Find(`span[data-hook="avp-badge"]`).Length() > 0,
		HelpfulVotes:     extractHelpfulVotes(node),
	}

	if !record.Valid() {
		return nil, nil
	}

	record.ReviewID = nativeID(node)
	if record.ReviewID == "" {
		record.ReviewID = FallbackID(record.Author, record.Rating, record.ReviewDate, record.Body)
	}
	if record.ReviewID == "" {
		return nil, fmt.Errorf("review node has no usable identifier")
	}
	return record, nil
}

func nativeID(node *goquery.Selection) string {
	if id, ok := node.Attr("id"); ok && strings.HasPrefix(id, "R") {
		return id
	}
	if id, ok := node.Attr("data-review-id"); ok && id != "" {
		return id
	}
	return ""
}

func firstText(node *goquery.Selection, selectors []string) string {
	for _, selector := range selectors {
		if text := strings.TrimSpace(node.Find(selector).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func extractAuthor(node *goquery.Selection) string {
	if author := strings.TrimSpace(node.Find("span.a-profile-name").First().Text()); author != "" {
		return author
	}
	return "Anonymous"
}

func extractRating(node *goquery.Selection) int {
	for _, selector := range ratingSelectors {
		text := node.Find(selector).First().Text()
		match := ratingTokenPattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		value, err := strconv.ParseFloat(strings.ReplaceAll(match[1], ",", "."), 64)
		if err != nil || value < 0 || value > 5 {
			continue
		}
		return int(value)
	}
	return 0
}

// extractDate keeps the trailing date phrase after "on ", e.g.
// "Reviewed in the United States on January 2, 2024" -> "January 2, 2024".
func extractDate(node *goquery.Selection) string {
	text := strings.TrimSpace(node.Find(`span[data-hook="review-date"]`).First().Text())
	if match := trailingDatePattern.FindStringSubmatch(text); match != nil {
		return strings.TrimSpace(match[1])
	}
	return text
}

func extractHelpfulVotes(node *goquery.Selection) int {
	text := node.Find(`span[data-hook="helpful-vote-statement"]`).First().Text()
	match := votesTokenPattern.FindStringSubmatch(text)
	if match == nil {
		return 0
	}
	votes, err := strconv.Atoi(strings.ReplaceAll(match[1], ",", ""))
	if err != nil {
		return 0
	}
	return votes
}
