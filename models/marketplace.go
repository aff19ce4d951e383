// Package models defines data structures for the review collection engine.
package models

import "strings"

// Marketplace identifies the regional storefront a product is listed on.
type Marketplace string

const (
	MarketplaceUS Marketplace = "US"
	MarketplaceUK Marketplace = "UK"
	MarketplaceDE Marketplace = "DE"
	MarketplaceFR Marketplace = "FR"
	MarketplaceJP Marketplace = "JP"
)

var marketplaceOrigins = map[Marketplace]string{
	MarketplaceUS: "https://www.amazon.com",
	MarketplaceUK: "https://www.amazon.co.uk",
	MarketplaceDE: "https://www.amazon.de",
	MarketplaceFR: "https://www.amazon.fr",
	MarketplaceJP: "https://www.amazon.co.jp",
}

// Origin returns the scheme+host origin for the marketplace.
func (m Marketplace) Origin() string {
	if origin, ok := marketplaceOrigins[m]; ok {
		return origin
	}
	return marketplaceOrigins[MarketplaceUS]
}

// Valid reports whether m is a known marketplace.
func (m Marketplace) Valid() bool {
	_, ok := marketplaceOrigins[m]
	return ok
}

// ParseMarketplace converts a marketplace code into a Marketplace.
func ParseMarketplace(code string) (Marketplace, bool) {
	m := Marketplace(strings.ToUpper(strings.TrimSpace(code)))
	return m, m.Valid()
}

// MarketplaceForHost maps a document host to its marketplace.
func MarketplaceForHost(host string) (Marketplace, bool) {
	host = strings.ToLower(host)
	switch {
	case strings.HasSuffix(host, "amazon.co.uk"):
		return MarketplaceUK, true
	case strings.HasSuffix(host, "amazon.de"):
		return MarketplaceDE, true
	case strings.HasSuffix(host, "amazon.fr"):
		return MarketplaceFR, true
	case strings.HasSuffix(host, "amazon.co.jp"):
		return MarketplaceJP, true
	case strings.HasSuffix(host, "amazon.com"):
		return MarketplaceUS, true
	}
	return MarketplaceUS, false
}
