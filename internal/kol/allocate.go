package kol

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rotisserie/eris"

	"github.com/retailpulse/lake-cli/internal/gold"
	"github.com/retailpulse/lake-cli/internal/lake"
	"github.com/retailpulse/lake-cli/internal/model"
)

// NoisyShares perturbs each creator's share with independent multiplicative
// noise (normal, mean 1.0, the given sigma, clipped at zero) and
// renormalizes so the shares sum to 1 again.
func NoisyShares(rng *rand.Rand, creators []model.CreatorProfile, sigma float64) []float64 {
	shares := make([]float64, len(creators))
	var sum float64
	for i, c := range creators {
		s := c.Share * (1 + rng.NormFloat64()*sigma)
		if s < 0 {
			s = 0
		}
		shares[i] = s
		sum += s
	}

	if sum == 0 {
		// Every share clipped to zero; fall back to a uniform split.
		for i := range shares {
			shares[i] = 1 / float64(len(shares))
		}
		return shares
	}
	for i := range shares {
		shares[i] /= sum
	}
	return shares
}

// AllocateViews distributes an integer view total proportionally to shares
// by floor division, then hands the residual out one unit at a time to the
// first-ranked creators. The result always sums exactly to views.
func AllocateViews(shares []float64, views int) ([]int, error) {
	alloc := make([]int, len(shares))
	allocated := 0
	for i, s := range shares {
		alloc[i] = int(math.Floor(s * float64(views)))
		allocated += alloc[i]
	}

	residual := views - allocated
	if residual < 0 || residual > len(shares) {
		return nil, eris.Errorf("kol: residual %d out of range for %d creators", residual, len(shares))
	}
	for i := 0; i < residual; i++ {
		alloc[i]++
	}

	// Conservation check: a leftover here is an allocation bug, never a
	// data condition.
	total := 0
	for _, v := range alloc {
		total += v
	}
	if total != views {
		return nil, eris.Errorf("kol: allocated %d views of %d", total, views)
	}
	return alloc, nil
}

// AllocateDay redistributes one day's metrics across the population. Views
// are conserved exactly; addtocart, transactions, and revenue inherit each
// creator's realized view fraction and keep its rounding loss.
func AllocateDay(rng *rand.Rand, creators []model.CreatorProfile, day model.DailyMetrics, sigma float64) ([]model.KolRecord, error) {
	shares := NoisyShares(rng, creators, sigma)
	views, err := AllocateViews(shares, day.View)
	if err != nil {
		return nil, eris.Wrapf(err, "kol: allocate %s", day.Date)
	}

	campaign, err := CampaignLabel(day.Date)
	if err != nil {
		return nil, err
	}

	records := make([]model.KolRecord, len(creators))
	for i, c := range creators {
		var frac float64
		if day.View > 0 {
			frac = float64(views[i]) / float64(day.View)
		}

		rec := model.KolRecord{
			Date:           day.Date,
			CreatorID:      c.CreatorID,
			CampaignID:     campaign,
			Views:          views[i],
			AddToCart:      int(math.Floor(frac * float64(day.AddToCart))),
			Transactions:   int(math.Floor(frac * float64(day.Transaction))),
			Revenue:        frac * day.Revenue,
			Tier:           c.Tier,
			EngagementRate: c.EngagementRate,
			Category:       c.Category,
		}
		rec.CTR, rec.CVR = gold.Rates(rec.Views, rec.AddToCart, rec.Transactions)
		records[i] = rec
	}
	return records, nil
}

// CampaignLabel derives the ISO week label for a date, e.g. "W27". It is a
// grouping key for weekly roll-ups and carries no other semantics.
func CampaignLabel(date string) (string, error) {
	t, err := time.Parse(lake.DateFormat, date)
	if err != nil {
		return "", eris.Wrapf(err, "kol: parse date %s", date)
	}
	_, week := t.ISOWeek()
	return fmt.Sprintf("W%02d", week), nil
}
