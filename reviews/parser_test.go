package reviews

import (
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func docFrom(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse document: %v", err)
	}
	return doc
}

func reviewNode(id, author, rating, date, body string, extras ...string) string {
	var b strings.Builder
	if id != "" {
		fmt.Fprintf(&b, `<div id=%q data-hook="review">`, id)
	} else {
		b.WriteString(`<div data-hook="review">`)
	}
	if author != "" {
		fmt.Fprintf(&b, `<span class="a-profile-name">%s</span>`, author)
	}
	if rating != "" {
		fmt.Fprintf(&b, `<i data-hook="review-star-rating"><span class="a-icon-alt">%s</span></i>`, rating)
	}
	if date != "" {
		fmt.Fprintf(&b, `<span data-hook="review-date">%s</span>`, date)
	}
	if body != "" {
		fmt.Fprintf(&b, `<span data-hook="review-body"><span>%s</span></span>`, body)
	}
	for _, extra := range extras {
		b.WriteString(extra)
	}
	b.WriteString("</div>")
	return b.String()
}

func TestParsePageFullRecord(t *testing.T) {
	html := "<html><body>" + reviewNode(
		"R1AAAA", "Alice", "4.0 out of 5 stars",
		"Reviewed in the United States on January 2, 2024",
		"Works exactly as described.",
		`<a data-hook="review-title"><span>Solid purchase</span></a>`,
		`<span data-hook="avp-badge">Verified Purchase</span>`,
		`<span data-hook="helpful-vote-statement">1,287 people found this helpful</span>`,
	) + "</body></html>"

	records := ParsePage(docFrom(t, html))
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}

	r := records[0]
	if r.ReviewID != "R1AAAA" {
		t.Fatalf("id = %q", r.ReviewID)
	}
	if r.Author != "Alice" {
		t.Fatalf("author = %q", r.Author)
	}
	if r.Rating != 4 {
		t.Fatalf("rating = %d, want 4", r.Rating)
	}
	if r.Title != "Solid purchase" {
		t.Fatalf("title = %q", r.Title)
	}
	if r.Body != "Works exactly as described." {
		t.Fatalf("body = %q", r.Body)
	}
	if r.ReviewDate != "January 2, 2024" {
		t.Fatalf("date = %q", r.ReviewDate)
	}
	if !r.VerifiedPurchase {
		t.Fatalf("expected verified purchase")
	}
	if r.HelpfulVotes != 1287 {
		t.Fatalf("votes = %d, want 1287", r.HelpfulVotes)
	}
}

func TestParsePageDefaults(t *testing.T) {
	html := "<html><body>" + reviewNode(
		"R2BBBB", "", "5.0 out of 5 stars", "", "",
	) + "</body></html>"

	records := ParsePage(docFrom(t, html))
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	r := records[0]
	if r.Author != "Anonymous" {
		t.Fatalf("author = %q, want Anonymous", r.Author)
	}
	if r.VerifiedPurchase {
		t.Fatalf("verified should default to false")
	}
	if r.HelpfulVotes != 0 {
		t.Fatalf("votes = %d, want 0", r.HelpfulVotes)
	}
}

func TestParsePageValidityFilter(t *testing.T) {
	// Empty body and zero rating: discarded even with a native id.
	html := "<html><body>" + reviewNode("R3CCCC", "Bob", "", "", "") + "</body></html>"
	if records := ParsePage(docFrom(t, html)); len(records) != 0 {
		t.Fatalf("records = %d, want 0", len(records))
	}
}

func TestParsePageFallbackIdentifier(t *testing.T) {
	html := "<html><body>" + reviewNode(
		"", "Alice", "5.0 out of 5 stars",
		"Reviewed in the United States on January 2, 2024",
		"Great product, works as expected",
	) + "</body></html>"

	records := ParsePage(docFrom(t, html))
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if got := records[0].ReviewID; got != "Red6ea9df" {
		t.Fatalf("fallback id = %q, want %q", got, "Red6ea9df")
	}
}

func TestParsePageNativeIDRequiresPrefix(t *testing.T) {
	// An element id without the review prefix is not trusted; the data
	// attribute wins instead.
	html := `<html><body><div id="wrapper-7" data-review-id="R4DDDD" data-hook="review">` +
		`<span data-hook="review-body"><span>fine</span></span></div></body></html>`

	records := ParsePage(docFrom(t, html))
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if records[0].ReviewID != "R4DDDD" {
		t.Fatalf("id = %q, want R4DDDD", records[0].ReviewID)
	}
}

func TestFallbackIDDeterminism(t *testing.T) {
	first := FallbackID("Bob", 3, "March 5, 2023", "Decent value for the price but shipping was slow")
	for i := 0; i < 50; i++ {
		if got := FallbackID("Bob", 3, "March 5, 2023", "Decent value for the price but shipping was slow"); got != first {
			t.Fatalf("fallback id changed across invocations: %q vs %q", got, first)
		}
	}
	if first != "R58f09808" {
		t.Fatalf("fallback id = %q, want R58f09808", first)
	}
}

func TestFallbackIDKnownVectors(t *testing.T) {
	tests := []struct {
		author string
		rating int
		date   string
		body   string
		want   string
	}{
		{"Alice", 5, "January 2, 2024", "Great product, works as expected", "Red6ea9df"},
		{"Anonymous", 0, "", "x", "Refeb68ca"},
	}
	for _, tt := range tests {
		if got := FallbackID(tt.author, tt.rating, tt.date, tt.body); got != tt.want {
			t.Fatalf("FallbackID(%q,...) = %q, want %q", tt.author, got, tt.want)
		}
	}
}

func TestFallbackIDSensitiveToBodyPrefix(t *testing.T) {
	base := "this body is longer than thirty characters in total"
	reference := FallbackID("Carol", 4, "May 1, 2022", base)

	for i := 0; i < bodyPrefixLength; i++ {
		mutated := []byte(base)
		mutated[i]++
		if got := FallbackID("Carol", 4, "May 1, 2022", string(mutated)); got == reference {
			t.Fatalf("mutation at index %d did not change the hash", i)
		}
	}

	// Changes past the 30-character prefix do not affect the key.
	tail := []byte(base)
	tail[len(tail)-1] = '!'
	if got := FallbackID("Carol", 4, "May 1, 2022", string(tail)); got != reference {
		t.Fatalf("mutation past prefix changed the hash: %q vs %q", got, reference)
	}
}

func TestDJB2KnownValue(t *testing.T) {
	if got := djb2("hello"); got != 261238937 {
		t.Fatalf("djb2(hello) = %d, want 261238937", got)
	}
}

func BenchmarkParsePage(b *testing.B) {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for i := 0; i < 10; i++ {
		sb.WriteString(reviewNode(
			fmt.Sprintf("R%06d", i), "Reviewer", "4.0 out of 5 stars",
			"Reviewed in the United States on January 2, 2024",
			"A reasonably long review body used to benchmark the parser path.",
		))
	}
	sb.WriteString("</body></html>")
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(sb.String()))
	if err != nil {
		b.Fatalf("parse document: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if records := ParsePage(doc); len(records) != 10 {
			b.Fatalf("records = %d", len(records))
		}
	}
}
