// Package kol generates a synthetic creator population and redistributes
// each day's aggregate funnel metrics across it without losing or
// duplicating any unit.
package kol

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/retailpulse/lake-cli/internal/model"
)

// TierProfile holds the draw probability and statistical ranges of one tier.
type TierProfile struct {
	Tier          model.Tier
	Probability   float64
	FollowerMin   int
	FollowerMax   int
	EngagementMin float64
	EngagementMax float64
}

// DefaultTiers is the fixed tier-probability table. Probabilities sum to 1.
var DefaultTiers = []TierProfile{
	{Tier: model.TierNano, Probability: 0.25, FollowerMin: 5_000, FollowerMax: 20_000, EngagementMin: 0.035, EngagementMax: 0.08},
	{Tier: model.TierMicro, Probability: 0.40, FollowerMin: 20_001, FollowerMax: 150_000, EngagementMin: 0.02, EngagementMax: 0.05},
	{Tier: model.TierMacro, Probability: 0.25, FollowerMin: 150_001, FollowerMax: 800_000, EngagementMin: 0.012, EngagementMax: 0.03},
	{Tier: model.TierMega, Probability: 0.10, FollowerMin: 800_001, FollowerMax: 3_000_000, EngagementMin: 0.005, EngagementMax: 0.015},
}

// DefaultCategories is the fixed creator category set.
var DefaultCategories = []string{"Beauty", "Fashion", "Tech", "Lifestyle", "Gaming", "Food", "Fitness"}

// GeneratePopulation draws n creators from rng. For a fixed seed and n the
// population is identical across runs; the same rng must then be threaded
// through per-date allocation to reproduce a full run.
func GeneratePopulation(rng *rand.Rand, n int) []model.CreatorProfile {
	creators := make([]model.CreatorProfile, n)
	var totalWeight float64

	for i := range creators {
		tier := drawTier(rng)
		followers := tier.FollowerMin + int(rng.Float64()*float64(tier.FollowerMax-tier.FollowerMin))
		engagement := tier.EngagementMin + rng.Float64()*(tier.EngagementMax-tier.EngagementMin)
		engagement = math.Round(engagement*1e4) / 1e4
		category := DefaultCategories[rng.Intn(len(DefaultCategories))]

		weight := float64(followers) * (1 + 10*engagement)
		creators[i] = model.CreatorProfile{
			CreatorID:      fmt.Sprintf("C%03d", i+1),
			Tier:           tier.Tier,
			Followers:      followers,
			EngagementRate: engagement,
			Category:       category,
			Weight:         weight,
		}
		totalWeight += weight
	}

	for i := range creators {
		creators[i].Share = creators[i].Weight / totalWeight
	}
	return creators
}

// drawTier makes one weighted draw over the tier-probability table.
func drawTier(rng *rand.Rand) TierProfile {
	u := rng.Float64()
	var cum float64
	for _, tier := range DefaultTiers {
		cum += tier.Probability
		if u < cum {
			return tier
		}
	}
	return DefaultTiers[len(DefaultTiers)-1]
}
