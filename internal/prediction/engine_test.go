package prediction

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/hat3ck/cryptosense/internal/fusion"
	"github.com/hat3ck/cryptosense/internal/ml"
	"github.com/hat3ck/cryptosense/pkg/models"
)

func btcModelConfig() *models.MLModelConfig {
	return &models.MLModelConfig{
		ID:                 1,
		Name:               "btc-gbt",
		PredictionCurrency: "btc",
		Provider:           "xgboost",
		Model:              "XGBRegressor",
		ModelType:          models.ModelTypeRegression,
		NumericFeatures:    []string{"comment_score"},
		CategoricalFeatures: []string{
			"crypto_sentiment",
		},
		TargetVariable: "price_diff_percentage",
		Hyperparameters: map[string]float64{
			"n_estimators":  20,
			"learning_rate": 0.3,
		},
		IsActive: true,
	}
}

func valid(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: true}
}

func trainRow(asset string, bucket int64, score int, priceNow, diffPct float64) fusion.Row {
	return fusion.Row{
		Asset:           asset,
		Bucket:          bucket,
		CommentScore:    score,
		CryptoSentiment: "positive",
		PriceNow:        valid(priceNow),
		PriceFuture:     valid(priceNow * (1 + diffPct/100)),
		PriceDiffPct:    valid(diffPct),
	}
}

func TestPredictAssetCalibration(t *testing.T) {
	cfg := btcModelConfig()

	// Constant +5% target: the model predicts 5 and calibration turns the
	// current price of 100 into 105.
	var train []fusion.Row
	for i := 0; i < 10; i++ {
		train = append(train, trainRow("btc", int64(1000+i*3600), i, 100, 5.0))
	}
	infer := []fusion.Row{
		{Asset: "btc", Bucket: 999999, CommentScore: 4, CryptoSentiment: "positive"},
	}

	engine := NewEngine(ml.NewRegistry())
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return fixed }

	rec, err := engine.PredictAsset(cfg, train, infer, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.Currency != "btc" {
		t.Errorf("currency = %s, want btc", rec.Currency)
	}
	if got := rec.CurrencyPrice.StringFixed(2); got != "100.00" {
		t.Errorf("current price = %s, want 100.00", got)
	}
	if got := rec.PredictedPrice.StringFixed(2); got != "105.00" {
		t.Errorf("predicted price = %s, want 105.00", got)
	}
	if want := fixed.Unix() + 12*3600; rec.PredictionTimestamp != want {
		t.Errorf("prediction timestamp = %d, want %d", rec.PredictionTimestamp, want)
	}
	if rec.ModelProvider != "xgboost" || rec.Model != "XGBRegressor" {
		t.Errorf("model identifiers not carried: %+v", rec)
	}
}

func TestPredictAssetCurrentPriceFromOldestRow(t *testing.T) {
	cfg := btcModelConfig()

	train := []fusion.Row{
		trainRow("btc", 1000, 1, 200, 0),
		trainRow("btc", 2000, 2, 300, 0),
	}
	infer := []fusion.Row{{Asset: "btc", CommentScore: 1, CryptoSentiment: "positive"}}

	engine := NewEngine(ml.NewRegistry())
	rec, err := engine.PredictAsset(cfg, train, infer, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := rec.CurrencyPrice.StringFixed(2); got != "200.00" {
		t.Errorf("current price = %s, want the first training row's 200.00", got)
	}
}

func TestPredictAssetIgnoresOtherAssets(t *testing.T) {
	cfg := btcModelConfig()

	train := []fusion.Row{
		trainRow("eth", 1000, 1, 10, 5),
		trainRow("btc", 1000, 1, 100, 5),
	}
	infer := []fusion.Row{
		{Asset: "eth", CommentScore: 1, CryptoSentiment: "positive"},
		{Asset: "btc", CommentScore: 1, CryptoSentiment: "positive"},
	}

	engine := NewEngine(ml.NewRegistry())
	rec, err := engine.PredictAsset(cfg, train, infer, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := rec.CurrencyPrice.StringFixed(2); got != "100.00" {
		t.Errorf("current price = %s, eth rows leaked in", got)
	}
}

func TestPredictAssetRejectsClassificationModel(t *testing.T) {
	cfg := btcModelConfig()
	cfg.ModelType = models.ModelTypeClassification

	train := []fusion.Row{trainRow("btc", 1000, 1, 100, 5)}
	infer := []fusion.Row{{Asset: "btc", CommentScore: 1, CryptoSentiment: "positive"}}

	if _, err := NewEngine(ml.NewRegistry()).PredictAsset(cfg, train, infer, 12); err == nil {
		t.Fatal("expected error for a classification model config")
	}
}

func TestPredictAssetNoRows(t *testing.T) {
	cfg := btcModelConfig()
	engine := NewEngine(ml.NewRegistry())

	_, err := engine.PredictAsset(cfg, nil, nil, 12)
	if !errors.Is(err, ErrNoUsableRows) {
		t.Fatalf("expected ErrNoUsableRows, got %v", err)
	}
}

func TestReducePredictions(t *testing.T) {
	if got := reducePredictions([]float64{2, 4, 6}); got != 4 {
		t.Errorf("mean = %v, want 4", got)
	}
	if got := reducePredictions(nil); got != 0 {
		t.Errorf("empty mean = %v, want 0", got)
	}
}

func TestCalibrate(t *testing.T) {
	tests := []struct {
		price float64
		pct   float64
		want  string
	}{
		{100, 5, "105.00"},
		{100, -10, "90.00"},
		{250, 0, "250.00"},
	}
	for _, tt := range tests {
		if got := calibrate(tt.price, tt.pct).StringFixed(2); got != tt.want {
			t.Errorf("calibrate(%v, %v) = %s, want %s", tt.price, tt.pct, got, tt.want)
		}
	}
}
