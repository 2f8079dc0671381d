package models

import "github.com/shopspring/decimal"

// NewDecimal creates decimal from float64
func NewDecimal(value float64) decimal.Decimal {
	return decimal.NewFromFloat(value)
}

// PredictionRecord is one calibrated future-price estimate. Append-only.
type PredictionRecord struct {
	ID                  int64           `db:"id" json:"id"`
	Currency            string          `db:"currency" json:"currency"`
	PricedIn            string          `db:"priced_in" json:"priced_in"`
	CurrencyPrice       decimal.Decimal `db:"currency_price" json:"currency_price"`
	ModelProvider       string          `db:"model_provider" json:"model_provider"`
	Model               string          `db:"model" json:"model"`
	PredictedPrice      decimal.Decimal `db:"predicted_price" json:"predicted_price"`
	PredictionTimestamp int64           `db:"prediction_timestamp" json:"prediction_timestamp"`
	CreatedUTC          int64           `db:"created_utc" json:"created_utc"`
}
