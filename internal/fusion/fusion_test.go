package fusion

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/hat3ck/cryptosense/pkg/models"
)

// 2024-01-01 00:00:00 UTC
const baseTS = int64(1704067200)

func labeledRow(commentID string, createdUTC int64) (models.PostCommentRow, models.SentimentLabel) {
	row := models.PostCommentRow{
		PostID:            "p1",
		CommentID:         commentID,
		Subreddit:         "CryptoCurrency",
		Title:             "daily thread",
		PostScore:         10,
		CommentScore:      3,
		Depth:             1,
		NumComments:       50,
		Body:              "hodl",
		CommentCreatedUTC: createdUTC,
	}
	label := models.SentimentLabel{
		PostID:          "p1",
		CommentID:       commentID,
		CryptoSentiment: models.SentimentPositive,
		FutureSentiment: models.SentimentPositive,
		Emotion:         models.EmotionHope,
		Subjective:      models.SubjectiveYes,
	}
	return row, label
}

func snapshot(currency string, ts int64, price float64) models.PriceSnapshot {
	return models.PriceSnapshot{Currency: currency, Price: price, PriceCurrency: "usd", Timestamp: ts}
}

func TestFusePriceDiff(t *testing.T) {
	// Comment at 00:30 lands in the 00:00 bucket. With a 12h horizon the
	// future price comes from the 12:00 bucket: 100 -> 110 is +10%.
	row, label := labeledRow("c1", baseTS+1800)
	prices := []models.PriceSnapshot{
		snapshot("btc", baseTS, 100),
		snapshot("btc", baseTS+12*3600, 110),
	}

	fused, err := Fuse([]models.PostCommentRow{row}, []models.SentimentLabel{label}, prices, []string{"btc"}, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fused) != 1 {
		t.Fatalf("expected 1 fused row, got %d", len(fused))
	}

	got := fused[0]
	if got.Bucket != baseTS {
		t.Errorf("bucket = %d, want %d", got.Bucket, baseTS)
	}
	if !got.PriceNow.Valid || got.PriceNow.Float64 != 100 {
		t.Errorf("price now = %+v, want 100", got.PriceNow)
	}
	if !got.PriceFuture.Valid || got.PriceFuture.Float64 != 110 {
		t.Errorf("price future = %+v, want 110", got.PriceFuture)
	}
	if !got.PriceDiffPct.Valid || got.PriceDiffPct.Float64 != 10.0 {
		t.Errorf("price diff = %+v, want 10.0", got.PriceDiffPct)
	}
	if got.CryptoSentiment != "positive" || got.Emotion != "hope" {
		t.Errorf("label values not carried: %+v", got)
	}
}

func TestFuseCrossExpandsAssets(t *testing.T) {
	row, label := labeledRow("c1", baseTS)
	prices := []models.PriceSnapshot{
		snapshot("btc", baseTS, 100),
		snapshot("eth", baseTS, 10),
	}

	fused, err := Fuse([]models.PostCommentRow{row}, []models.SentimentLabel{label}, prices, []string{"btc", "eth"}, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fused) != 2 {
		t.Fatalf("expected 2 fused rows (one per asset), got %d", len(fused))
	}
	if fused[0].Asset != "btc" || fused[1].Asset != "eth" {
		t.Errorf("unexpected asset order: %s, %s", fused[0].Asset, fused[1].Asset)
	}
	if fused[1].PriceNow.Float64 != 10 {
		t.Errorf("eth row got btc price: %+v", fused[1].PriceNow)
	}
}

func TestFuseDropsUnlabeledRows(t *testing.T) {
	labeled, label := labeledRow("c1", baseTS)
	unlabeled := labeled
	unlabeled.CommentID = "c2"

	fused, err := Fuse([]models.PostCommentRow{labeled, unlabeled}, []models.SentimentLabel{label},
		[]models.PriceSnapshot{snapshot("btc", baseTS, 100)}, []string{"btc"}, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fused) != 1 || fused[0].CommentID != "c1" {
		t.Fatalf("unlabeled row not dropped: %+v", fused)
	}
}

func TestFuseMissingBuckets(t *testing.T) {
	row, label := labeledRow("c1", baseTS)

	// Only the future bucket has a snapshot
	fused, err := Fuse([]models.PostCommentRow{row}, []models.SentimentLabel{label},
		[]models.PriceSnapshot{snapshot("btc", baseTS+12*3600, 110)}, []string{"btc"}, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := fused[0]
	if got.PriceNow.Valid {
		t.Errorf("price now should be null, got %+v", got.PriceNow)
	}
	if !got.PriceFuture.Valid {
		t.Errorf("price future should be set, got %+v", got.PriceFuture)
	}
	if got.PriceDiffPct.Valid {
		t.Errorf("diff needs both prices, got %+v", got.PriceDiffPct)
	}
}

func TestFuseHoursSinceATH(t *testing.T) {
	row, label := labeledRow("c1", baseTS)
	snap := snapshot("btc", baseTS, 100)
	snap.ATHDate = sql.NullString{String: "2023-12-31T12:00:00Z", Valid: true}

	fused, err := Fuse([]models.PostCommentRow{row}, []models.SentimentLabel{label},
		[]models.PriceSnapshot{snap}, []string{"btc"}, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// ATH was 12 hours before the bucket
	if got := fused[0].HoursSinceATH; !got.Valid || got.Float64 != 12.0 {
		t.Errorf("hours since ath = %+v, want 12.0", got)
	}
}

func TestFuseNegativeHoursSinceATH(t *testing.T) {
	row, label := labeledRow("c1", baseTS)
	snap := snapshot("btc", baseTS, 100)
	snap.ATHDate = sql.NullString{String: "2024-01-01T06:00:00Z", Valid: true}

	fused, err := Fuse([]models.PostCommentRow{row}, []models.SentimentLabel{label},
		[]models.PriceSnapshot{snap}, []string{"btc"}, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// ATH 6 hours after the bucket must yield a negative value, not null
	if got := fused[0].HoursSinceATH; !got.Valid || got.Float64 != -6.0 {
		t.Errorf("hours since ath = %+v, want -6.0", got)
	}
}

func TestTrainingView(t *testing.T) {
	price := func(v float64) sql.NullFloat64 { return sql.NullFloat64{Float64: v, Valid: true} }

	rows := []Row{
		{Asset: "btc", Bucket: baseTS + 7200, PriceNow: price(1), PriceFuture: price(2)},
		{Asset: "btc", Bucket: baseTS, PriceNow: price(1)}, // no future
		{Asset: "btc", Bucket: baseTS, PriceNow: price(1), PriceFuture: price(2)},
		{Asset: "btc", Bucket: baseTS + 3600},
	}

	view := TrainingView(rows)

	if len(view) != 2 {
		t.Fatalf("expected 2 training rows, got %d", len(view))
	}
	if view[0].Bucket != baseTS || view[1].Bucket != baseTS+7200 {
		t.Errorf("training rows not sorted by bucket: %d, %d", view[0].Bucket, view[1].Bucket)
	}
}

func TestInferenceView(t *testing.T) {
	rows := []Row{
		{Asset: "btc", Bucket: baseTS},
		{Asset: "btc", Bucket: baseTS + 3600},
		{Asset: "eth", Bucket: baseTS + 3600},
	}

	view, err := InferenceView(rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(view) != 2 {
		t.Fatalf("expected 2 inference rows, got %d", len(view))
	}
	for _, row := range view {
		if row.Bucket != baseTS+3600 {
			t.Errorf("inference row from stale bucket %d", row.Bucket)
		}
	}
}

func TestInferenceViewEmpty(t *testing.T) {
	if _, err := InferenceView(nil); !errors.Is(err, ErrNoInferenceRows) {
		t.Fatalf("expected ErrNoInferenceRows, got %v", err)
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{10.004, 10.0},
		{10.006, 10.01},
		{-3.456, -3.46},
		{0, 0},
	}
	for _, tt := range tests {
		if got := Round2(tt.in); got != tt.want {
			t.Errorf("Round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
