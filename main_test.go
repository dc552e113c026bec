package main

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"sjsage522/dealcatalog/internal/catalog"
	"sjsage522/dealcatalog/internal/ingest"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-browse", "-category", "electronics", "-sort", "price", "-q", "watch", "-page", "2"})
	require.NoError(t, err)
	assert.True(t, opts.browse)
	assert.Equal(t, "electronics", opts.category)
	assert.Equal(t, "price", opts.sort)
	assert.Equal(t, "watch", opts.search)
	assert.Equal(t, 2, opts.page)

	opts, err = parseFlags([]string{"-test"})
	require.NoError(t, err)
	assert.True(t, opts.testMode)
	assert.False(t, opts.loop)
	assert.Equal(t, "score", opts.sort)
	assert.Equal(t, 1, opts.page)

	_, err = parseFlags([]string{"-nope"})
	assert.Error(t, err)
}

func TestPrintResults(t *testing.T) {
	var buf bytes.Buffer
	printResults(&buf, ingest.Results{
		"walmart": {Found: 0, Added: 0},
		"amazon":  {Found: 5, Added: 3},
	})

	assert.Equal(t, "amazon: Found 5 deals, Added 3 new deals\nwalmart: Found 0 deals, Added 0 new deals\n", buf.String())
}

func TestBrowse(t *testing.T) {
	ctx := context.Background()
	store := catalog.NewMemory()

	site, _, err := store.GetOrCreateSite(ctx, "amazon", catalog.Site{Active: true})
	require.NoError(t, err)
	electronics, _, err := store.GetOrCreateCategory(ctx, "electronics", catalog.Category{Slug: "electronics"})
	require.NoError(t, err)

	for i := 0; i < 12; i++ {
		require.NoError(t, store.CreateDeal(ctx, &catalog.Deal{
			Hash:            fmt.Sprintf("h%d", i),
			Title:           fmt.Sprintf("Phone %d", i),
			DiscountedPrice: float64(10 + i),
			CategoryID:      lo.ToPtr(electronics.ID),
			SiteID:          site.ID,
			Active:          true,
			Score:           i,
			FirstSeen:       time.Now(),
		}))
	}

	var buf bytes.Buffer
	require.NoError(t, browse(ctx, &buf, store, options{sort: "price", page: 2}))

	out := buf.String()
	assert.Contains(t, out, "12 active deals from 1 sites")
	assert.Contains(t, out, "Categories: electronics")
	assert.Contains(t, out, "Page 2 of 2 (12 matching deals)")
	assert.Contains(t, out, "Phone 9")
	assert.NotContains(t, out, "Phone 8 ")
}
