package prediction

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hat3ck/cryptosense/internal/fusion"
	"github.com/hat3ck/cryptosense/internal/ml"
	"github.com/hat3ck/cryptosense/pkg/models"
)

// ErrNoUsableRows is returned when every fused row for an asset is missing
// a configured feature or the target
var ErrNoUsableRows = errors.New("no rows with all configured features")

// Engine turns fused views into calibrated price predictions, one asset at
// a time
type Engine struct {
	registry *ml.Registry

	// injectable clock for deterministic prediction timestamps in tests
	now func() time.Time
}

// NewEngine creates a prediction engine backed by the given model registry
func NewEngine(registry *ml.Registry) *Engine {
	return &Engine{registry: registry, now: time.Now}
}

// featureSet is the extracted design data for one asset
type featureSet struct {
	numeric     [][]float64
	categorical [][]string
	target      []float64
	prices      []float64 // PriceNow per kept row, training order
}

// PredictAsset runs one full fit-and-predict pass for the asset named by the
// model config. Training rows must be oldest first; the asset's current
// price is taken from the first of them.
func (e *Engine) PredictAsset(cfg *models.MLModelConfig, train, infer []fusion.Row, horizonHours int) (*models.PredictionRecord, error) {
	asset := cfg.PredictionCurrency

	if cfg.ModelType == models.ModelTypeClassification {
		return nil, fmt.Errorf("model %q for %s: classification models cannot predict a price change", cfg.Name, asset)
	}

	trainSet, err := extractFeatures(filterAsset(train, asset), cfg, true)
	if err != nil {
		return nil, fmt.Errorf("training features for %s: %w", asset, err)
	}
	inferSet, err := extractFeatures(filterAsset(infer, asset), cfg, false)
	if err != nil {
		return nil, fmt.Errorf("inference features for %s: %w", asset, err)
	}

	// Preprocessing state is learned from the training split only, so
	// inference sees the same transform the model was fitted with.
	pre := &ml.Preprocessor{}
	if err := pre.Fit(trainSet.numeric, trainSet.categorical); err != nil {
		return nil, fmt.Errorf("preprocessing for %s: %w", asset, err)
	}

	trainX, err := pre.Transform(trainSet.numeric, trainSet.categorical)
	if err != nil {
		return nil, err
	}
	inferX, err := pre.Transform(inferSet.numeric, inferSet.categorical)
	if err != nil {
		return nil, err
	}

	model, err := e.registry.Build(cfg.Provider, cfg.Model, cfg.Hyperparameters)
	if err != nil {
		return nil, err
	}
	if err := model.Fit(trainX, trainSet.target); err != nil {
		return nil, fmt.Errorf("model fit for %s: %w", asset, err)
	}

	preds, err := model.Predict(inferX)
	if err != nil {
		return nil, fmt.Errorf("model predict for %s: %w", asset, err)
	}

	pct := reducePredictions(preds)
	currentPrice := trainSet.prices[0]
	now := e.now().UTC()

	return &models.PredictionRecord{
		Currency:            asset,
		CurrencyPrice:       models.NewDecimal(currentPrice),
		ModelProvider:       cfg.Provider,
		Model:               cfg.Model,
		PredictedPrice:      calibrate(currentPrice, pct),
		PredictionTimestamp: now.Unix() + int64(horizonHours)*3600,
		CreatedUTC:          now.Unix(),
	}, nil
}

// reducePredictions collapses per-row predictions into one percentage. Mean
// is the only reduction in use; swap here to change the strategy.
func reducePredictions(preds []float64) float64 {
	if len(preds) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range preds {
		sum += p
	}
	return sum / float64(len(preds))
}

// calibrate turns a predicted percentage change into an absolute price
func calibrate(currentPrice, pct float64) decimal.Decimal {
	factor := decimal.NewFromFloat(pct).
		Div(decimal.NewFromInt(100)).
		Add(decimal.NewFromInt(1))
	return models.NewDecimal(currentPrice).Mul(factor)
}

func filterAsset(rows []fusion.Row, asset string) []fusion.Row {
	out := make([]fusion.Row, 0, len(rows))
	for _, row := range rows {
		if row.Asset == asset {
			out = append(out, row)
		}
	}
	return out
}

// extractFeatures pulls the configured feature columns out of fused rows.
// Rows missing any configured feature are skipped; an empty result is an
// error because neither fitting nor inference can proceed without rows.
func extractFeatures(rows []fusion.Row, cfg *models.MLModelConfig, withTarget bool) (*featureSet, error) {
	set := &featureSet{}

rowLoop:
	for i := range rows {
		row := &rows[i]

		numeric := make([]float64, 0, len(cfg.NumericFeatures))
		for _, name := range cfg.NumericFeatures {
			v, ok := row.NumericFeature(name)
			if !ok {
				continue rowLoop
			}
			numeric = append(numeric, v)
		}

		categorical := make([]string, 0, len(cfg.CategoricalFeatures))
		for _, name := range cfg.CategoricalFeatures {
			v, ok := row.CategoricalFeature(name)
			if !ok {
				continue rowLoop
			}
			categorical = append(categorical, v)
		}

		if withTarget {
			if !row.PriceDiffPct.Valid || !row.PriceNow.Valid {
				continue
			}
			set.target = append(set.target, row.PriceDiffPct.Float64)
			set.prices = append(set.prices, row.PriceNow.Float64)
		}

		set.numeric = append(set.numeric, numeric)
		set.categorical = append(set.categorical, categorical)
	}

	if len(set.numeric) == 0 {
		return nil, ErrNoUsableRows
	}

	return set, nil
}
