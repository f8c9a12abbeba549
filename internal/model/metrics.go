package model

// DailyMetrics is one gold-stage funnel row per calendar date. The table is
// regenerated in full on every run, never patched incrementally.
//
// CTR and CVR are nil (not zero) on dates with no view events; they encode
// as an empty CSV cell and a SQL NULL at the contract boundary.
type DailyMetrics struct {
	Date        string   `csv:"date"`
	View        int      `csv:"view"`
	AddToCart   int      `csv:"addtocart"`
	Transaction int      `csv:"transaction"`
	CTR         *float64 `csv:"ctr_view_to_cart"`
	CVR         *float64 `csv:"conv_view_to_tx"`
	Revenue     float64  `csv:"revenue"`
}

// TopItem is one row of the transaction ranking. Price is the item's most
// recent resolved price, nil when the item never resolved one.
type TopItem struct {
	ItemID       string   `csv:"itemid"`
	Transactions int      `csv:"transactions"`
	Price        *float64 `csv:"price"`
}
