package prices

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/hat3ck/cryptosense/pkg/models"
)

// Repository handles price snapshot storage. Reads work against Postgres or
// ClickHouse; queries are written with ? placeholders and rebound per driver.
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates new price repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// InsertSnapshots appends snapshots. Snapshots are never updated.
func (r *Repository) InsertSnapshots(ctx context.Context, snapshots []models.PriceSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	query := r.db.Rebind(`
		INSERT INTO currency_prices (
			currency, name, price, price_currency, timestamp, source,
			market_cap, total_volume, total_supply, ath, ath_date
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	for _, s := range snapshots {
		_, err := r.db.ExecContext(ctx, query,
			s.Currency, s.Name, s.Price, s.PriceCurrency, s.Timestamp, s.Source,
			s.MarketCap, s.TotalVolume, s.TotalSupply, s.ATH, s.ATHDate,
		)
		if err != nil {
			return fmt.Errorf("failed to insert price snapshot for %s: %w", s.Currency, err)
		}
	}

	return nil
}

// GetByDateRange fetches snapshots with timestamp in [start, end], oldest
// first
func (r *Repository) GetByDateRange(ctx context.Context, startUTC, endUTC int64) ([]models.PriceSnapshot, error) {
	query := r.db.Rebind(`
		SELECT id, currency, name, price, price_currency, timestamp, source,
		       market_cap, total_volume, total_supply, ath, ath_date
		FROM currency_prices
		WHERE timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC
	`)

	snapshots := []models.PriceSnapshot{}
	if err := r.db.SelectContext(ctx, &snapshots, query, startUTC, endUTC); err != nil {
		return nil, fmt.Errorf("failed to query price snapshots: %w", err)
	}

	return snapshots, nil
}

// GetTrackedCurrencies returns the distinct currencies present in storage
func (r *Repository) GetTrackedCurrencies(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT currency FROM currency_prices ORDER BY currency`

	currencies := []string{}
	if err := r.db.SelectContext(ctx, &currencies, query); err != nil {
		return nil, fmt.Errorf("failed to query tracked currencies: %w", err)
	}

	return currencies, nil
}
