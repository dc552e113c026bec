package crawler

import (
	"net/url"
	"strings"

	"sjsage522/dealcatalog/internal/deal"

	"github.com/PuerkitoBio/goquery"
)

// Generic fallback selectors tried after the site's own selector.
var (
	titleFallbacks         = []string{"h2 a span", ".a-text-normal"}
	priceFallbacks         = []string{".a-price-whole", ".a-offscreen"}
	originalPriceFallbacks = []string{".a-text-price span"}
)

// Fields holds the raw strings pulled out of one deal container.
type Fields struct {
	Title             string
	PriceText         string
	OriginalPriceText string
	ProductURL        string
	ImageURL          string
}

// TextOf returns a handler yielding the trimmed text of the first element matching selector.
// An empty selector yields a handler that never matches.
func TextOf(selector string) ElementHandler {
	return func(s *goquery.Selection) string {
		if selector == "" {
			return ""
		}
		return strings.TrimSpace(s.Find(selector).First().Text())
	}
}

// AttrOf returns a handler yielding attribute attr of the first element matching selector.
func AttrOf(selector, attr string) ElementHandler {
	return func(s *goquery.Selection) string {
		if selector == "" {
			return ""
		}
		value, _ := s.Find(selector).First().Attr(attr)
		return strings.TrimSpace(value)
	}
}

// FirstNonEmpty runs handlers in order and returns the first non-empty result.
func FirstNonEmpty(s *goquery.Selection, handlers ...ElementHandler) string {
	for _, handler := range handlers {
		if handler == nil {
			continue
		}
		if value := handler(s); value != "" {
			return value
		}
	}
	return ""
}

func textHandlers(primary string, fallbacks []string) []ElementHandler {
	handlers := make([]ElementHandler, 0, len(fallbacks)+1)
	if primary != "" {
		handlers = append(handlers, TextOf(primary))
	}
	for _, selector := range fallbacks {
		handlers = append(handlers, TextOf(selector))
	}
	return handlers
}

// pricesOnly wraps handlers so text that doesn't parse as a positive price counts as not found.
func pricesOnly(handlers []ElementHandler) []ElementHandler {
	wrapped := make([]ElementHandler, 0, len(handlers))
	for _, handler := range handlers {
		handler := handler
		wrapped = append(wrapped, func(s *goquery.Selection) string {
			text := handler(s)
			if price, ok := deal.ParsePrice(text); !ok || price <= 0 {
				return ""
			}
			return text
		})
	}
	return wrapped
}

// Extract pulls the listing fields out of a container. Relative product URLs
// are resolved against pageURL.
func Extract(container *goquery.Selection, selectors SiteSelectors, pageURL string) Fields {
	fields := Fields{
		Title:             FirstNonEmpty(container, textHandlers(selectors.Title, titleFallbacks)...),
		PriceText:         FirstNonEmpty(container, textHandlers(selectors.PriceDiscounted, priceFallbacks)...),
		OriginalPriceText: FirstNonEmpty(container, pricesOnly(textHandlers(selectors.PriceOriginal, originalPriceFallbacks))...),
		ImageURL:          FirstNonEmpty(container, AttrOf("img", "src"), AttrOf("img", "data-src")),
	}

	if href := AttrOf("a", "href")(container); href != "" {
		fields.ProductURL = ResolveURL(pageURL, href)
	}

	return fields
}

// ResolveURL resolves href against base. Unparseable input is returned unchanged.
func ResolveURL(base, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}

	baseURL, err := url.Parse(base)
	if err != nil || base == "" {
		return href
	}

	return baseURL.ResolveReference(ref).String()
}
