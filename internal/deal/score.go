package deal

import "math"

// DefaultPrimarySource is the source that earns the scorer's site bonus
// when no other primary source is configured.
const DefaultPrimarySource = "amazon"

const (
	maxDiscountPoints = 60.0
	discountWeight    = 0.6
	primaryBonus      = 20
	cheapBonus        = 10
	midPriceBonus     = 5
	cheapLimit        = 50.0
	midPriceLimit     = 200.0
	maxScore          = 100
)

// ScoreInput holds the deal attributes the scorer looks at.
type ScoreInput struct {
	DiscountPercentage int
	Source             string
	DiscountedPrice    float64
}

// Scorer rates deals from 0 to 100.
type Scorer struct {
	Primary string
}

// NewScorer returns a Scorer that favours the given source.
func NewScorer(primary string) Scorer {
	if primary == "" {
		primary = DefaultPrimarySource
	}
	return Scorer{Primary: primary}
}

// Score computes the quality score of a deal.
func (s Scorer) Score(in ScoreInput) int {
	total := math.Min(maxDiscountPoints, float64(in.DiscountPercentage)*discountWeight)

	if in.Source == s.Primary {
		total += primaryBonus
	}

	switch {
	case in.DiscountedPrice < cheapLimit:
		total += cheapBonus
	case in.DiscountedPrice < midPriceLimit:
		total += midPriceBonus
	}

	score := int(math.Floor(total))
	if score > maxScore {
		return maxScore
	}
	if score < 0 {
		return 0
	}
	return score
}
