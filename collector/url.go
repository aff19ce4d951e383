package collector

import (
	"fmt"
	"net/url"

	"github.com/reviewpulse/go-collect-reviews/models"
)

// starFilters maps a star rating to the listing filter token the review
// endpoint expects.
var starFilters = map[int]string{
	1: "one_star",
	2: "two_star",
	3: "three_star",
	4: "four_star",
	5: "five_star",
}

// ListingURL builds the review listing URL for one page of one star segment.
// Pages are always requested in most-recent-first order.
func ListingURL(marketplace models.Marketplace, productID string, star, page int) (string, error) {
	filter, ok := starFilters[star]
	if !ok {
		return "", fmt.Errorf("star rating %d outside 1..5", star)
	}
	if page < 1 {
		return "", fmt.Errorf("page number %d must be positive", page)
	}

	q := url.Values{}
	q.Set("ie", "UTF8")
	q.Set("reviewerType", "all_reviews")
	q.Set("filterByStar", filter)
	q.Set("pageNumber", fmt.Sprintf("%d", page))
	q.Set("sortBy", "recent")

	return fmt.Sprintf("%s/product-reviews/%s?%s", marketplace.Origin(), productID, q.Encode()), nil
}
