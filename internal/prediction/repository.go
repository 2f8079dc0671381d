package prediction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/hat3ck/cryptosense/pkg/models"
)

// ErrNoActiveModel is returned when an asset has no active model
// configuration
var ErrNoActiveModel = errors.New("no active model configuration")

// Repository handles model configurations and prediction persistence
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates new prediction repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// GetActiveModel fetches the single active model configuration for a
// prediction currency. Returns ErrNoActiveModel when none exists; an asset
// without a config is skipped by the cycle, not an error.
func (r *Repository) GetActiveModel(ctx context.Context, currency string) (*models.MLModelConfig, error) {
	query := `
		SELECT id, name, prediction_currency, description, provider, model, model_type,
		       hyperparameters, numeric_features, categorical_features, target_variable,
		       created_utc, updated_utc, is_active
		FROM ml_models
		WHERE prediction_currency = $1 AND is_active = true
		ORDER BY updated_utc DESC
		LIMIT 1
	`

	var cfg models.MLModelConfig
	if err := r.db.GetContext(ctx, &cfg, query, currency); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w for %q", ErrNoActiveModel, currency)
		}
		return nil, fmt.Errorf("failed to query model config for %q: %w", currency, err)
	}

	if err := cfg.DecodeJSONColumns(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// InsertPredictions stores calibrated predictions. Append-only.
func (r *Repository) InsertPredictions(ctx context.Context, records []models.PredictionRecord) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		INSERT INTO predictions (
			currency, priced_in, currency_price, model_provider, model,
			predicted_price, prediction_timestamp, created_utc
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for _, rec := range records {
		_, err := r.db.ExecContext(ctx, query,
			rec.Currency, rec.PricedIn, rec.CurrencyPrice,
			rec.ModelProvider, rec.Model,
			rec.PredictedPrice, rec.PredictionTimestamp, rec.CreatedUTC,
		)
		if err != nil {
			return fmt.Errorf("failed to insert prediction for %s: %w", rec.Currency, err)
		}
	}

	return nil
}

// GetRecentPredictions fetches the newest predictions, optionally filtered
// by currency
func (r *Repository) GetRecentPredictions(ctx context.Context, currency string, limit int) ([]models.PredictionRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, currency, priced_in, currency_price, model_provider, model,
		       predicted_price, prediction_timestamp, created_utc
		FROM predictions
	`
	args := []interface{}{}
	if currency != "" {
		query += " WHERE currency = $1"
		args = append(args, currency)
	}
	query += fmt.Sprintf(" ORDER BY created_utc DESC LIMIT %d", limit)

	records := []models.PredictionRecord{}
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}

	return records, nil
}
