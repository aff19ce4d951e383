package models

import "regexp"

var asinPattern = regexp.MustCompile(`^[A-Z0-9]{10}$`)

// ProductIdentity is the canonical identifier of a listed product.
// Derived once per session and immutable afterwards.
type ProductIdentity struct {
	ID          string      `json:"id"`
	Marketplace Marketplace `json:"marketplace"`
}

// Valid reports whether the identity carries a well-formed 10-character id.
func (p ProductIdentity) Valid() bool {
	return asinPattern.MatchString(p.ID) && p.Marketplace.Valid()
}

// ValidProductID reports whether id is a plausible 10-character product id.
func ValidProductID(id string) bool {
	return asinPattern.MatchString(id)
}

// ProductSnapshot holds product metadata captured once at session start.
type ProductSnapshot struct {
	Title         string   `json:"title"`
	ImageURL      string   `json:"image_url,omitempty"`
	AverageRating *float64 `json:"average_rating,omitempty"`
	Price         string   `json:"price,omitempty"`
	Bullets       []string `json:"bullets,omitempty"`
}

// ReviewRecord is a single collected customer review. ReviewID is the
// uniqueness key within a session.
type ReviewRecord struct {
	ReviewID         string `csv:"review_id" json:"review_id"`
	Author           string `csv:"author" json:"author"`
	Rating           int    `csv:"rating" json:"rating"`
	Title            string `csv:"title" json:"title"`
	Body             string `csv:"body" json:"body"`
	ReviewDate       string `csv:"review_date" json:"review_date"`
	VerifiedPurchase bool   `csv:"verified_purchase" json:"verified_purchase"`
	HelpfulVotes     int    `csv:"helpful_votes" json:"helpful_votes"`
}

// Valid reports whether the record carries enough content to keep. A review
// with an empty body and a zero rating is discarded during parsing.
func (r *ReviewRecord) Valid() bool {
	if r == nil {
		return false
	}
	return r.Body != "" || r.Rating > 0
}
