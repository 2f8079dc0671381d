package models

import "database/sql"

// PriceSnapshot is one append-only market observation for a currency.
// MarketCap and friends are nullable because not every source reports them.
type PriceSnapshot struct {
	ID            int64           `db:"id" json:"id"`
	Currency      string          `db:"currency" json:"currency"`
	Name          string          `db:"name" json:"name"`
	Price         float64         `db:"price" json:"price"`
	PriceCurrency string          `db:"price_currency" json:"price_currency"`
	Timestamp     int64           `db:"timestamp" json:"timestamp"`
	Source        string          `db:"source" json:"source"`
	MarketCap     sql.NullFloat64 `db:"market_cap" json:"market_cap"`
	TotalVolume   sql.NullFloat64 `db:"total_volume" json:"total_volume"`
	TotalSupply   sql.NullFloat64 `db:"total_supply" json:"total_supply"`
	ATH           sql.NullFloat64 `db:"ath" json:"ath"`
	ATHDate       sql.NullString  `db:"ath_date" json:"ath_date"`
}
