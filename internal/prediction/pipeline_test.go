package prediction

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/hat3ck/cryptosense/internal/adapters/config"
	"github.com/hat3ck/cryptosense/internal/ml"
	"github.com/hat3ck/cryptosense/pkg/models"
)

// 2024-01-01 00:00:00 UTC
const pipelineBaseTS = int64(1704067200)

type fakeDiscussions struct {
	posts    []models.RedditPost
	comments []models.RedditComment
}

func (f *fakeDiscussions) GetPostsByDateRange(_ context.Context, _, _ int64) ([]models.RedditPost, error) {
	return f.posts, nil
}

func (f *fakeDiscussions) GetCommentsByDateRange(_ context.Context, _, _ int64) ([]models.RedditComment, error) {
	return f.comments, nil
}

type fakeLabels struct {
	labels []models.SentimentLabel
}

func (f *fakeLabels) GetLabelsByPostIDs(_ context.Context, _ []string) ([]models.SentimentLabel, error) {
	return f.labels, nil
}

type fakePrices struct {
	snapshots []models.PriceSnapshot
	tracked   []string
}

func (f *fakePrices) GetByDateRange(_ context.Context, _, _ int64) ([]models.PriceSnapshot, error) {
	return f.snapshots, nil
}

func (f *fakePrices) GetTrackedCurrencies(_ context.Context) ([]string, error) {
	return f.tracked, nil
}

type fakeModelStore struct {
	configs  map[string]*models.MLModelConfig
	inserted []models.PredictionRecord
}

func (f *fakeModelStore) GetActiveModel(_ context.Context, currency string) (*models.MLModelConfig, error) {
	cfg, ok := f.configs[currency]
	if !ok {
		return nil, fmt.Errorf("%w for %q", ErrNoActiveModel, currency)
	}
	return cfg, nil
}

func (f *fakeModelStore) InsertPredictions(_ context.Context, records []models.PredictionRecord) error {
	f.inserted = append(f.inserted, records...)
	return nil
}

func pipelineFixtures() (*fakeDiscussions, *fakeLabels, *fakePrices) {
	discussions := &fakeDiscussions{
		posts: []models.RedditPost{{ID: "p1", Title: "daily", Subreddit: "CryptoCurrency"}},
	}
	labels := &fakeLabels{}
	prices := &fakePrices{}

	for i := 0; i < 24; i++ {
		commentID := fmt.Sprintf("c%d", i)
		discussions.comments = append(discussions.comments, models.RedditComment{
			ID:         commentID,
			PostID:     "p1",
			Body:       "number go up",
			Score:      i,
			CreatedUTC: pipelineBaseTS + int64(i)*3600,
		})
		labels.labels = append(labels.labels, models.SentimentLabel{
			PostID:          "p1",
			CommentID:       commentID,
			CryptoSentiment: models.SentimentPositive,
			FutureSentiment: models.SentimentPositive,
			Emotion:         models.EmotionHope,
			Subjective:      models.SubjectiveYes,
		})
	}

	// Snapshots past the last comment bucket so 12h futures exist
	for i := 0; i < 36; i++ {
		prices.snapshots = append(prices.snapshots, models.PriceSnapshot{
			Currency:      "btc",
			Price:         100 + float64(i),
			PriceCurrency: "usd",
			Timestamp:     pipelineBaseTS + int64(i)*3600,
		})
	}
	prices.tracked = []string{"btc"}

	return discussions, labels, prices
}

func newTestPipeline(store *fakeModelStore) *Pipeline {
	discussions, labels, prices := pipelineFixtures()
	cfg := config.PredictionConfig{
		Currencies:      []string{"btc", "eth"},
		MainCurrency:    "usd",
		HorizonHours:    12,
		TrainWindowDays: 30,
	}

	p := NewPipeline(discussions, labels, prices, store, NewEngine(ml.NewRegistry()), cfg)
	p.now = func() time.Time { return time.Unix(pipelineBaseTS+36*3600, 0).UTC() }
	return p
}

func TestRunCycleSkipsAssetsWithoutConfig(t *testing.T) {
	store := &fakeModelStore{configs: map[string]*models.MLModelConfig{
		"btc": btcModelConfig(),
	}}

	records, err := newTestPipeline(store).RunCycle(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// eth has no active config and is skipped, btc still predicts
	if len(records) != 1 {
		t.Fatalf("expected 1 prediction, got %d", len(records))
	}
	if records[0].Currency != "btc" || records[0].PricedIn != "usd" {
		t.Errorf("unexpected prediction: %+v", records[0])
	}
	if got := records[0].CurrencyPrice.StringFixed(2); got != "100.00" {
		t.Errorf("current price = %s, want oldest bucket price 100.00", got)
	}
	if len(store.inserted) != 1 {
		t.Errorf("predictions not persisted, got %d rows", len(store.inserted))
	}
}

func TestRunCycleFusesStoredAssetsOnly(t *testing.T) {
	// eth has an active config but no stored snapshots: it never enters the
	// fused frame and is skipped, while btc still predicts
	ethCfg := btcModelConfig()
	ethCfg.PredictionCurrency = "eth"
	store := &fakeModelStore{configs: map[string]*models.MLModelConfig{
		"btc": btcModelConfig(),
		"eth": ethCfg,
	}}

	records, err := newTestPipeline(store).RunCycle(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].Currency != "btc" {
		t.Fatalf("expected only btc to predict, got %+v", records)
	}
}

func TestRunCycleAllAssetsFail(t *testing.T) {
	store := &fakeModelStore{configs: map[string]*models.MLModelConfig{}}

	if _, err := newTestPipeline(store).RunCycle(context.Background()); err == nil {
		t.Fatal("expected error when no asset can be predicted")
	}
	if len(store.inserted) != 0 {
		t.Errorf("failed cycle must not persist predictions")
	}
}
