// Package model defines the record types flowing through the lake stages.
package model

// Canonical event types in the raw clickstream export. Rows with any other
// event value still count as events but never contribute to funnel metrics.
const (
	EventView        = "view"
	EventAddToCart   = "addtocart"
	EventTransaction = "transaction"
)

// RawEvent is one row of the raw events export, partitioned by calendar date
// at ingestion. Immutable once partitioned.
type RawEvent struct {
	Timestamp int64  `csv:"timestamp"`
	VisitorID string `csv:"visitorid"`
	Event     string `csv:"event"`
	ItemID    string `csv:"itemid"`
	Date      string `csv:"date"`
}

// RawPropertyChange is one row of the unordered item-property change log.
// Multiple changes may exist for the same item and property within a day.
type RawPropertyChange struct {
	Timestamp int64  `csv:"timestamp"`
	ItemID    string `csv:"itemid"`
	Property  string `csv:"property"`
	Value     string `csv:"value"`
	Date      string `csv:"date"`
}

// CleanEvent is a RawEvent with rows missing event or item dropped and
// identifier fields coerced to text. Grouped per date in the Silver stage.
type CleanEvent struct {
	VisitorID string `csv:"visitorid"`
	Event     string `csv:"event"`
	ItemID    string `csv:"itemid"`
}

// ResolvedPrice is the authoritative price for an item on its partition date.
type ResolvedPrice struct {
	ItemID string  `csv:"itemid"`
	Price  float64 `csv:"price"`
}

// ResolvedCategory is the authoritative category for an item on its
// partition date.
type ResolvedCategory struct {
	ItemID     string `csv:"itemid"`
	CategoryID string `csv:"categoryid"`
}
