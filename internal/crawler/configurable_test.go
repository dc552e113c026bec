package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sjsage522/dealcatalog/config"
	"sjsage522/dealcatalog/helpers"
	"sjsage522/dealcatalog/internal/deal"
	"sjsage522/dealcatalog/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher serves a fixed body or error for any URL
type fakeFetcher struct {
	body  string
	err   error
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (io.Reader, error) {
	f.calls = append(f.calls, url)
	if f.err != nil {
		return nil, f.err
	}
	return strings.NewReader(f.body), nil
}

func testSite() config.SiteConfig {
	return config.SiteConfig{
		Name:      "shop",
		BaseURL:   "shop.example",
		DealsPage: "https://shop.example/deals",
		Selectors: config.Selectors{
			DealContainer:   "div.deal",
			Title:           "h3.title",
			PriceDiscounted: "span.now",
			PriceOriginal:   "span.was",
		},
	}
}

func dealHTML(title, now, was string) string {
	return fmt.Sprintf(`<div class="deal"><a href="/p/%s"><h3 class="title">%s</h3></a><span class="now">%s</span><span class="was">%s</span></div>`,
		strings.ReplaceAll(strings.ToLower(title), " ", "-"), title, now, was)
}

func TestConfigurableCrawler_FetchDeals(t *testing.T) {
	page := "<html><body>" +
		dealHTML("Bluetooth Headphones", "$59.99", "$99.99") +
		dealHTML("Leather Jacket", "$1,200.00", "") +
		`<div class="deal"><span class="now">$5</span></div>` +
		dealHTML("Mystery Box", "", "") +
		dealHTML("Free Sample", "free", "") +
		"</body></html>"

	fetcher := &fakeFetcher{body: page}
	crawler := NewConfigurableCrawler(testSite(), fetcher)

	listings, err := crawler.FetchDeals(context.Background())
	require.NoError(t, err)
	require.Len(t, listings, 2)
	assert.Equal(t, []string{"https://shop.example/deals"}, fetcher.calls)

	headphones := listings[0]
	assert.Equal(t, "Bluetooth Headphones", headphones.Title)
	assert.Equal(t, 59.99, headphones.DiscountedPrice)
	require.NotNil(t, headphones.OriginalPrice)
	assert.Equal(t, 99.99, *headphones.OriginalPrice)
	assert.Equal(t, 40, headphones.DiscountPercentage)
	assert.Equal(t, "electronics", headphones.Category)
	assert.Equal(t, "shop", headphones.Source)
	assert.Equal(t, "https://shop.example/p/bluetooth-headphones", headphones.ProductURL)
	assert.Equal(t, deal.ComputeHash("Bluetooth Headphones", "shop", 59.99), headphones.Hash)

	jacket := listings[1]
	assert.Equal(t, 1200.0, jacket.DiscountedPrice)
	assert.Nil(t, jacket.OriginalPrice)
	assert.Equal(t, 0, jacket.DiscountPercentage)
	assert.Equal(t, "fashion", jacket.Category)
}

func TestConfigurableCrawler_CapsContainers(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 15; i++ {
		b.WriteString(dealHTML(fmt.Sprintf("Item %d", i), "$10", "$20"))
	}

	crawler := NewConfigurableCrawler(testSite(), &fakeFetcher{body: b.String()})

	listings, err := crawler.FetchDeals(context.Background())
	require.NoError(t, err)
	assert.Len(t, listings, MaxContainers)
	assert.Equal(t, "Item 9", listings[MaxContainers-1].Title)
}

func TestConfigurableCrawler_FallbackContainer(t *testing.T) {
	page := `<div data-component-type="s-search-result">
		<h2><a href="/dp/1"><span>Kindle Paperwhite</span></a></h2>
		<span class="a-price"><span class="a-offscreen">$99.99</span></span>
	</div>`

	crawler := NewConfigurableCrawler(testSite(), &fakeFetcher{body: page})

	listings, err := crawler.FetchDeals(context.Background())
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "Kindle Paperwhite", listings[0].Title)
	assert.Equal(t, 99.99, listings[0].DiscountedPrice)
	assert.Equal(t, "books", listings[0].Category)
}

func TestConfigurableCrawler_NoContainers(t *testing.T) {
	crawler := NewConfigurableCrawler(testSite(), &fakeFetcher{body: "<html><body><p>Nothing today</p></body></html>"})

	listings, err := crawler.FetchDeals(context.Background())
	require.NoError(t, err)
	assert.Empty(t, listings)
}

func TestConfigurableCrawler_FetchError(t *testing.T) {
	fetchErr := errors.NewNetwork("shop.example", "giving up after 3 attempts", nil)
	crawler := NewConfigurableCrawler(testSite(), &fakeFetcher{err: fetchErr})

	listings, err := crawler.FetchDeals(context.Background())
	assert.Nil(t, listings)
	assert.ErrorIs(t, err, fetchErr)
}

func TestConfigurableCrawler_WithFetcher(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, dealHTML("Gym Gloves", "$12.50", "$25.00"))
	}))
	defer server.Close()

	site := testSite()
	site.DealsPage = server.URL + "/deals"

	fetcher := helpers.NewFetcher(helpers.DefaultFetcherConfig(), nil)
	defer fetcher.Close()

	listings, err := NewConfigurableCrawler(site, fetcher).FetchDeals(context.Background())
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "sports", listings[0].Category)
	assert.Equal(t, 50, listings[0].DiscountPercentage)
	assert.Equal(t, server.URL+"/p/gym-gloves", listings[0].ProductURL)
}

func TestProcessDealResults(t *testing.T) {
	crawler := NewConfigurableCrawler(testSite(), nil)

	testCases := []struct {
		name    string
		html    string
		outcome Outcome
		reason  string
	}{
		{"ok", dealHTML("Desk Lamp Light", "$15", "$30"), OutcomeOK, ""},
		{"missing title", `<div class="deal"><span class="now">$15</span></div>`, OutcomeSkip, "missing title"},
		{"missing price", dealHTML("Desk Lamp", "", ""), OutcomeSkip, "missing price"},
		{"unparseable price", dealHTML("Desk Lamp", "call us", ""), OutcomeSkip, "unparseable price call us"},
		{"zero price", dealHTML("Desk Lamp", "$0.00", "$30"), OutcomeSkip, "non-positive price $0.00"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := selectionOf(t, strings.Replace(tc.html, `class="deal"`, `class="item"`, 1))
			result := crawler.processDeal(s)
			assert.Equal(t, tc.outcome, result.Outcome)
			assert.Equal(t, tc.reason, result.Reason)
		})
	}
}

func TestResultConstructors(t *testing.T) {
	failure := Failure(fmt.Errorf("boom"))
	assert.Equal(t, OutcomeFailure, failure.Outcome)
	assert.Equal(t, "boom", failure.Reason)

	ok := OK(Listing{Title: "x"})
	assert.Equal(t, OutcomeOK, ok.Outcome)
	assert.Equal(t, "x", ok.Listing.Title)
}
