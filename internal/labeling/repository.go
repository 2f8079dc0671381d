package labeling

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/hat3ck/cryptosense/pkg/logger"
	"github.com/hat3ck/cryptosense/pkg/models"
)

// ErrProviderNotFound is returned when no active labeling provider exists
var ErrProviderNotFound = errors.New("labeling provider not found or inactive")

// Repository handles sentiment label and provider quota persistence
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates new labeling repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// GetActiveProvider fetches the active provider record, optionally filtered
// by name. Returns ErrProviderNotFound when nothing matches.
func (r *Repository) GetActiveProvider(ctx context.Context, name string) (*models.LLMProviderRecord, error) {
	query := `
		SELECT id, name, model, default_api_key, api_url, tokens_per_minute,
		       calls_per_minute, total_used_tokens, is_active, created_at
		FROM llm_providers
		WHERE is_active = true
	`
	args := []interface{}{}
	if name != "" {
		query += " AND name = $1"
		args = append(args, name)
	}
	query += " ORDER BY id LIMIT 1"

	var record models.LLMProviderRecord
	if err := r.db.GetContext(ctx, &record, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %q", ErrProviderNotFound, name)
		}
		return nil, fmt.Errorf("failed to query llm provider: %w", err)
	}

	return &record, nil
}

// CreateProvider stores a new provider record
func (r *Repository) CreateProvider(ctx context.Context, record *models.LLMProviderRecord) error {
	query := `
		INSERT INTO llm_providers (
			name, model, default_api_key, api_url, tokens_per_minute,
			calls_per_minute, total_used_tokens, is_active, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		record.Name, record.Model, record.DefaultAPIKey, record.APIURL,
		record.TokensPerMinute, record.CallsPerMinute,
		record.TotalUsedTokens, record.IsActive, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create llm provider: %w", err)
	}

	return nil
}

// ProviderStore is the provider-record subset of the repository
type ProviderStore interface {
	GetActiveProvider(ctx context.Context, name string) (*models.LLMProviderRecord, error)
	CreateProvider(ctx context.Context, record *models.LLMProviderRecord) error
}

// EnsureDefaultProvider seeds one active provider record from configuration
// when the table holds none. Existing records always win, so operator edits
// are never overwritten. A blank name disables seeding.
func EnsureDefaultProvider(ctx context.Context, store ProviderStore, name, model string) error {
	if name == "" {
		return nil
	}

	if _, err := store.GetActiveProvider(ctx, ""); err == nil {
		return nil
	} else if !errors.Is(err, ErrProviderNotFound) {
		return err
	}

	logger.Info("Seeding labeling provider",
		zap.String("provider", name),
		zap.String("model", model))

	return store.CreateProvider(ctx, &models.LLMProviderRecord{
		Name:      name,
		Model:     model,
		IsActive:  true,
		CreatedAt: time.Now().UTC().Unix(),
	})
}

// AddTokenUsage increments the provider's cumulative token counter
func (r *Repository) AddTokenUsage(ctx context.Context, providerID int64, tokens int64) error {
	query := `
		UPDATE llm_providers
		SET total_used_tokens = total_used_tokens + $1
		WHERE id = $2
	`

	_, err := r.db.ExecContext(ctx, query, tokens, providerID)
	if err != nil {
		return fmt.Errorf("failed to update token usage: %w", err)
	}

	return nil
}

// InsertLabels stores labels with conflict-ignore semantics on
// (post_id, comment_id). Returns the number of rows actually inserted;
// re-labeling an already labeled pair is a silent no-op.
func (r *Repository) InsertLabels(ctx context.Context, labels []models.SentimentLabel) (int64, error) {
	if len(labels) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO reddit_sentiments (post_id, comment_id, crypto_sentiment, future_sentiment, emotion, subjective)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (post_id, comment_id) DO NOTHING
	`

	var inserted int64
	for _, label := range labels {
		res, err := r.db.ExecContext(ctx, query,
			label.PostID, label.CommentID,
			label.CryptoSentiment, label.FutureSentiment, label.Emotion, label.Subjective,
		)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert sentiment label (%s, %s): %w",
				label.PostID, label.CommentID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += n
		}
	}

	return inserted, nil
}

// GetLabelsByDateRange fetches labels whose comment was created within
// [start, end], oldest comment first
func (r *Repository) GetLabelsByDateRange(ctx context.Context, startUTC, endUTC int64) ([]models.SentimentLabel, error) {
	query := `
		SELECT s.id, s.post_id, s.comment_id, s.crypto_sentiment, s.future_sentiment, s.emotion, s.subjective
		FROM reddit_sentiments s
		JOIN reddit_comments c ON c.id = s.comment_id
		WHERE c.created_utc >= $1 AND c.created_utc <= $2
		ORDER BY c.created_utc ASC
	`

	labels := []models.SentimentLabel{}
	if err := r.db.SelectContext(ctx, &labels, query, startUTC, endUTC); err != nil {
		return nil, fmt.Errorf("failed to query sentiment labels by date range: %w", err)
	}

	return labels, nil
}

// GetLabelsByPostIDs fetches all labels for the given post ids
func (r *Repository) GetLabelsByPostIDs(ctx context.Context, postIDs []string) ([]models.SentimentLabel, error) {
	if len(postIDs) == 0 {
		return []models.SentimentLabel{}, nil
	}

	query, args, err := sqlx.In(`
		SELECT id, post_id, comment_id, crypto_sentiment, future_sentiment, emotion, subjective
		FROM reddit_sentiments
		WHERE post_id IN (?)
	`, postIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build labels query: %w", err)
	}

	labels := []models.SentimentLabel{}
	if err := r.db.SelectContext(ctx, &labels, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query sentiment labels: %w", err)
	}

	return labels, nil
}
