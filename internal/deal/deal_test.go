package deal

import (
	"testing"

	"github.com/go-faker/faker/v4"
	"github.com/stretchr/testify/assert"
)

func TestParsePrice(t *testing.T) {
	testCases := []struct {
		text      string
		wantPrice float64
		wantOK    bool
	}{
		{"$1,234.56", 1234.56, true},
		{"  USD 59.99 today  ", 59.99, true},
		{"₹ 2,499", 2499, true},
		{"N/A", 0, false},
		{"", 0, false},
		{"1.2.3", 0, false},
		{".", 0, false},
	}

	for _, tc := range testCases {
		price, ok := ParsePrice(tc.text)
		assert.Equal(t, tc.wantOK, ok, "ok for %q", tc.text)
		assert.InDelta(t, tc.wantPrice, price, 0.0001, "price for %q", tc.text)
	}
}

func TestCalculateDiscount(t *testing.T) {
	assert.Equal(t, 40, CalculateDiscount(99.99, 59.99))
	// 37.5% truncates to 37
	assert.Equal(t, 37, CalculateDiscount(80, 50))
	assert.Equal(t, 0, CalculateDiscount(0, 10))
	assert.Equal(t, 0, CalculateDiscount(10, 0))
}

func TestCategorize(t *testing.T) {
	testCases := []struct {
		title    string
		expected string
	}{
		{"Wireless Bluetooth Headphones", "electronics"},
		{"Yoga Mat", "sports"},
		{"Mystery Item", "other"},
		{"Men's Running Shoes - Comfort & Style", "fashion"},
		{"Kitchen Knife Set - 15 Piece Professional", "home"},
		{"Kindle Paperwhite", "books"},
		// phone (electronics) wins over bag (fashion)
		{"Phone Bag", "electronics"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, Categorize(tc.title), tc.title)
	}
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "home-and-garden", Slugify("Home and Garden"))
	assert.Equal(t, "electronics", Slugify("Electronics"))
}

func TestComputeHashDeterministic(t *testing.T) {
	first := ComputeHash("Yoga Mat", "amazon", 24.99)
	second := ComputeHash("Yoga Mat", "amazon", 24.99)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64)

	assert.NotEqual(t, first, ComputeHash("Yoga Mat!", "amazon", 24.99))
	assert.NotEqual(t, first, ComputeHash("Yoga Mat", "flipkart", 24.99))
	assert.NotEqual(t, first, ComputeHash("Yoga Mat", "amazon", 25.99))
}

func TestComputeHashNoCollisions(t *testing.T) {
	seen := make(map[string]string)
	for i := 0; i < 200; i++ {
		title := faker.Sentence()
		hash := ComputeHash(title, "amazon", float64(i)+0.99)
		if other, exists := seen[hash]; exists {
			t.Fatalf("hash collision between %q and %q", title, other)
		}
		seen[hash] = title
	}
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "24.0", formatPrice(24))
	assert.Equal(t, "59.99", formatPrice(59.99))
}

func TestScore(t *testing.T) {
	scorer := NewScorer("")

	testCases := []struct {
		name     string
		input    ScoreInput
		expected int
	}{
		// 59.99 is not below 50, so the mid-price bonus applies: 24 + 20 + 5
		{"primary mid discount mid price", ScoreInput{40, "amazon", 59.99}, 49},
		{"primary mid discount cheap", ScoreInput{40, "amazon", 49.99}, 54},
		{"primary full discount cheap", ScoreInput{100, "amazon", 10}, 90},
		{"nothing", ScoreInput{0, "flipkart", 300}, 0},
		{"capped discount", ScoreInput{150, "flipkart", 300}, 60},
		{"under fifty", ScoreInput{0, "flipkart", 49.99}, 10},
		{"boundary fifty", ScoreInput{0, "flipkart", 50}, 5},
		{"boundary two hundred", ScoreInput{0, "flipkart", 200}, 0},
		{"floors fractional points", ScoreInput{38, "flipkart", 300}, 22},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, scorer.Score(tc.input))
		})
	}
}

func TestScorerCustomPrimary(t *testing.T) {
	scorer := NewScorer("flipkart")
	assert.Equal(t, 20, scorer.Score(ScoreInput{0, "flipkart", 500}))
	assert.Equal(t, 0, scorer.Score(ScoreInput{0, "amazon", 500}))
}
