package model

// Tier buckets synthetic creators by audience size.
type Tier string

// Creator tiers, smallest audience first.
const (
	TierNano  Tier = "Nano"
	TierMicro Tier = "Micro"
	TierMacro Tier = "Macro"
	TierMega  Tier = "Mega"
)

// CreatorProfile is one synthetic creator, generated once per run from a
// fixed seed and immutable afterward. Weight and Share derive from the drawn
// followers and engagement rate; shares sum to exactly 1 over the population.
type CreatorProfile struct {
	CreatorID      string  `csv:"creator_id"`
	Tier           Tier    `csv:"tier"`
	Followers      int     `csv:"followers"`
	EngagementRate float64 `csv:"engagement_rate"`
	Category       string  `csv:"category"`
	Weight         float64 `csv:"weight"`
	Share          float64 `csv:"share"`
}

// KolRecord is one (date, creator) row of the redistributed daily metrics.
// CampaignID is an ISO week label used only as a weekly roll-up key.
type KolRecord struct {
	Date           string   `csv:"date"`
	CreatorID      string   `csv:"creator_id"`
	CampaignID     string   `csv:"campaign_id"`
	Views          int      `csv:"views"`
	AddToCart      int      `csv:"addtocart"`
	Transactions   int      `csv:"transactions"`
	Revenue        float64  `csv:"revenue"`
	Tier           Tier     `csv:"tier"`
	EngagementRate float64  `csv:"engagement_rate"`
	Category       string   `csv:"category"`
	CTR            *float64 `csv:"ctr_view_to_cart"`
	CVR            *float64 `csv:"conv_view_to_tx"`
}
