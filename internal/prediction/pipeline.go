package prediction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hat3ck/cryptosense/internal/adapters/config"
	"github.com/hat3ck/cryptosense/internal/fusion"
	"github.com/hat3ck/cryptosense/internal/labeling"
	"github.com/hat3ck/cryptosense/internal/reddit"
	"github.com/hat3ck/cryptosense/pkg/logger"
	"github.com/hat3ck/cryptosense/pkg/models"
)

// LabelSource provides stored sentiment labels for fusion
type LabelSource interface {
	GetLabelsByPostIDs(ctx context.Context, postIDs []string) ([]models.SentimentLabel, error)
}

// PriceSource provides stored price snapshots for fusion
type PriceSource interface {
	GetByDateRange(ctx context.Context, startUTC, endUTC int64) ([]models.PriceSnapshot, error)
	GetTrackedCurrencies(ctx context.Context) ([]string, error)
}

// ModelStore provides model configurations and prediction persistence
type ModelStore interface {
	GetActiveModel(ctx context.Context, currency string) (*models.MLModelConfig, error)
	InsertPredictions(ctx context.Context, records []models.PredictionRecord) error
}

// Pipeline runs the full data-to-prediction cycle: load discussions, labels
// and prices, fuse them, then fit and predict per configured asset. One
// failing asset is skipped; a cycle where every asset fails is an error.
type Pipeline struct {
	discussions labeling.DiscussionStore
	labels      LabelSource
	prices      PriceSource
	store       ModelStore
	engine      *Engine
	cfg         config.PredictionConfig

	now func() time.Time
}

// NewPipeline wires the prediction cycle
func NewPipeline(discussions labeling.DiscussionStore, labels LabelSource, prices PriceSource, store ModelStore, engine *Engine, cfg config.PredictionConfig) *Pipeline {
	return &Pipeline{
		discussions: discussions,
		labels:      labels,
		prices:      prices,
		store:       store,
		engine:      engine,
		cfg:         cfg,
		now:         time.Now,
	}
}

// RunCycle executes one prediction cycle over the configured training
// window and returns the persisted predictions
func (p *Pipeline) RunCycle(ctx context.Context) ([]models.PredictionRecord, error) {
	endUTC := p.now().UTC().Unix()
	startUTC := endUTC - int64(p.cfg.TrainWindowDays)*24*3600

	train, infer, err := p.buildViews(ctx, startUTC, endUTC)
	if err != nil {
		return nil, err
	}

	records := make([]models.PredictionRecord, 0, len(p.cfg.Currencies))
	for _, currency := range p.cfg.Currencies {
		rec, err := p.predictCurrency(ctx, currency, train, infer)
		if err != nil {
			logger.Warn("Skipping asset in prediction cycle",
				zap.String("currency", currency),
				zap.Error(err))
			continue
		}
		records = append(records, *rec)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("prediction cycle failed for all %d assets", len(p.cfg.Currencies))
	}

	if err := p.store.InsertPredictions(ctx, records); err != nil {
		return nil, err
	}

	logger.Info("Prediction cycle finished",
		zap.Int("predictions", len(records)),
		zap.Int("assets", len(p.cfg.Currencies)))

	return records, nil
}

// buildViews loads and fuses everything the cycle needs
func (p *Pipeline) buildViews(ctx context.Context, startUTC, endUTC int64) (train, infer []fusion.Row, err error) {
	posts, err := p.discussions.GetPostsByDateRange(ctx, startUTC, endUTC)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load posts: %w", err)
	}
	comments, err := p.discussions.GetCommentsByDateRange(ctx, startUTC, endUTC)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load comments: %w", err)
	}

	rows := reddit.JoinPostsComments(posts, comments)
	if len(rows) == 0 {
		return nil, nil, errors.New("no labeled discussions available in training window")
	}

	labels, err := p.labels.GetLabelsByPostIDs(ctx, postIDs(rows))
	if err != nil {
		return nil, nil, err
	}

	prices, err := p.prices.GetByDateRange(ctx, startUTC, endUTC)
	if err != nil {
		return nil, nil, err
	}

	// Cross-expansion covers every asset with stored snapshots, not just the
	// configured prediction targets
	assets, err := p.prices.GetTrackedCurrencies(ctx)
	if err != nil {
		return nil, nil, err
	}
	if len(assets) == 0 {
		assets = p.cfg.Currencies
	}

	fused, err := fusion.Fuse(rows, labels, prices, assets, p.cfg.HorizonHours)
	if err != nil {
		return nil, nil, err
	}
	fusion.EnrichIndicators(fused, prices)

	infer, err = fusion.InferenceView(fused)
	if err != nil {
		return nil, nil, err
	}

	return fusion.TrainingView(fused), infer, nil
}

func (p *Pipeline) predictCurrency(ctx context.Context, currency string, train, infer []fusion.Row) (*models.PredictionRecord, error) {
	cfg, err := p.store.GetActiveModel(ctx, currency)
	if err != nil {
		return nil, err
	}

	rec, err := p.engine.PredictAsset(cfg, train, infer, p.cfg.HorizonHours)
	if err != nil {
		return nil, err
	}
	rec.PricedIn = p.cfg.MainCurrency

	return rec, nil
}

func postIDs(rows []models.PostCommentRow) []string {
	seen := make(map[string]bool, len(rows))
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		if !seen[row.PostID] {
			seen[row.PostID] = true
			ids = append(ids, row.PostID)
		}
	}
	return ids
}
