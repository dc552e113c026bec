package crawler

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func selectionOf(t *testing.T, html string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc.Find("div.item").First()
}

func TestFirstNonEmpty(t *testing.T) {
	s := selectionOf(t, `<div class="item"><span class="a"> </span><span class="b">second</span></div>`)

	assert.Equal(t, "second", FirstNonEmpty(s, TextOf("span.missing"), TextOf("span.a"), TextOf("span.b")))
	assert.Equal(t, "", FirstNonEmpty(s, TextOf(""), nil, TextOf("span.missing")))
	assert.Equal(t, "", FirstNonEmpty(s))
}

func TestTextOfUsesFirstMatch(t *testing.T) {
	s := selectionOf(t, `<div class="item"><h2>  First  </h2><h2>Second</h2></div>`)

	assert.Equal(t, "First", TextOf("h2")(s))
}

func TestTextOfToleratesMalformedSelector(t *testing.T) {
	s := selectionOf(t, `<div class="item"><h2>Title</h2></div>`)

	assert.Equal(t, "", TextOf("h2[")(s))
	assert.Equal(t, "Title", FirstNonEmpty(s, TextOf("h2["), TextOf("h2")))
}

func TestExtractSiteSelectors(t *testing.T) {
	s := selectionOf(t, `
		<div class="item">
			<a href="/dp/123"><span class="name">Bluetooth Headphones</span></a>
			<img src="https://img.example/a.jpg">
			<span class="now">$59.99</span>
			<span class="was">$99.99</span>
		</div>`)

	fields := Extract(s, SiteSelectors{
		Title:           "span.name",
		PriceDiscounted: "span.now",
		PriceOriginal:   "span.was",
	}, "https://shop.example/deals?page=1")

	assert.Equal(t, "Bluetooth Headphones", fields.Title)
	assert.Equal(t, "$59.99", fields.PriceText)
	assert.Equal(t, "$99.99", fields.OriginalPriceText)
	assert.Equal(t, "https://shop.example/dp/123", fields.ProductURL)
	assert.Equal(t, "https://img.example/a.jpg", fields.ImageURL)
}

func TestExtractFallbacks(t *testing.T) {
	s := selectionOf(t, `
		<div class="item">
			<h2><a href="https://other.example/p/9"><span>Yoga Mat</span></a></h2>
			<img data-src="/lazy.jpg">
			<span class="a-price-whole">24.</span>
			<span class="a-text-price"><span>$39.99</span></span>
		</div>`)

	fields := Extract(s, SiteSelectors{Title: "span.missing"}, "https://shop.example/deals")

	assert.Equal(t, "Yoga Mat", fields.Title)
	assert.Equal(t, "24.", fields.PriceText)
	assert.Equal(t, "$39.99", fields.OriginalPriceText)
	assert.Equal(t, "https://other.example/p/9", fields.ProductURL)
	assert.Equal(t, "/lazy.jpg", fields.ImageURL)
}

func TestExtractOriginalPriceSkipsUnparseableText(t *testing.T) {
	s := selectionOf(t, `
		<div class="item">
			<span class="name">Desk Lamp</span>
			<span class="now">$15.00</span>
			<span class="list">List:</span>
			<span class="a-text-price"><span>$30.00</span></span>
		</div>`)

	fields := Extract(s, SiteSelectors{
		Title:           "span.name",
		PriceDiscounted: "span.now",
		PriceOriginal:   "span.list",
	}, "https://shop.example/deals")

	assert.Equal(t, "$30.00", fields.OriginalPriceText)
}

func TestExtractOriginalPriceNoneParse(t *testing.T) {
	s := selectionOf(t, `
		<div class="item">
			<span class="list">List:</span>
			<span class="a-text-price"><span>was</span></span>
		</div>`)

	fields := Extract(s, SiteSelectors{PriceOriginal: "span.list"}, "https://shop.example/deals")

	assert.Equal(t, "", fields.OriginalPriceText)
}

func TestExtractEmptyContainer(t *testing.T) {
	s := selectionOf(t, `<div class="item"></div>`)

	assert.Equal(t, Fields{}, Extract(s, SiteSelectors{}, "https://shop.example/"))
}

func TestResolveURL(t *testing.T) {
	testCases := []struct {
		base, href, want string
	}{
		{"https://shop.example/deals", "/dp/1", "https://shop.example/dp/1"},
		{"https://shop.example/deals/", "item/2", "https://shop.example/deals/item/2"},
		{"https://shop.example/deals", "https://cdn.example/x", "https://cdn.example/x"},
		{"", "/dp/1", "/dp/1"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, ResolveURL(tc.base, tc.href), tc.href)
	}
}
