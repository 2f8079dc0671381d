package fusion

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/hat3ck/cryptosense/pkg/models"
)

// ErrNoInferenceRows is returned when fusion produced nothing to run
// inference on.
var ErrNoInferenceRows = errors.New("no rows in latest bucket for inference")

const bucketSeconds = 3600

// Row is one fused observation: a labeled comment in an hourly bucket,
// expanded against one asset, with the asset's price state at the bucket and
// one horizon later. Price fields are null when no snapshot covers the
// bucket.
type Row struct {
	Asset  string
	Bucket int64

	PostID    string
	CommentID string
	Subreddit string

	PostScore    int
	CommentScore int
	Depth        int
	NumComments  int

	CryptoSentiment string
	FutureSentiment string
	Emotion         string
	Subjective      string

	PriceNow       sql.NullFloat64
	PriceFuture    sql.NullFloat64
	MarketCapNow   sql.NullFloat64
	TotalVolumeNow sql.NullFloat64
	TotalSupplyNow sql.NullFloat64
	ATHNow         sql.NullFloat64
	HoursSinceATH  sql.NullFloat64
	RSI14          sql.NullFloat64
	SMA24          sql.NullFloat64

	// PriceDiffPct is the training target: percentage change from PriceNow
	// to PriceFuture, rounded to 2 decimals
	PriceDiffPct sql.NullFloat64
}

// NumericFeature returns the named numeric feature value. The second return
// is false when the feature is unknown or null for this row.
func (r *Row) NumericFeature(name string) (float64, bool) {
	switch name {
	case "post_score":
		return float64(r.PostScore), true
	case "comment_score":
		return float64(r.CommentScore), true
	case "depth":
		return float64(r.Depth), true
	case "num_comments":
		return float64(r.NumComments), true
	case "market_cap_now":
		return r.MarketCapNow.Float64, r.MarketCapNow.Valid
	case "total_volume_now":
		return r.TotalVolumeNow.Float64, r.TotalVolumeNow.Valid
	case "total_supply_now":
		return r.TotalSupplyNow.Float64, r.TotalSupplyNow.Valid
	case "ath_now":
		return r.ATHNow.Float64, r.ATHNow.Valid
	case "hours_since_ath":
		return r.HoursSinceATH.Float64, r.HoursSinceATH.Valid
	case "rsi_14":
		return r.RSI14.Float64, r.RSI14.Valid
	case "sma_24":
		return r.SMA24.Float64, r.SMA24.Valid
	}
	return 0, false
}

// CategoricalFeature returns the named categorical feature value
func (r *Row) CategoricalFeature(name string) (string, bool) {
	switch name {
	case "crypto_sentiment":
		return r.CryptoSentiment, true
	case "future_sentiment":
		return r.FutureSentiment, true
	case "emotion":
		return r.Emotion, true
	case "subjective":
		return r.Subjective, true
	case "subreddit":
		return r.Subreddit, true
	}
	return "", false
}

// BucketHour truncates a unix timestamp to the start of its UTC hour
func BucketHour(ts int64) int64 {
	return ts - ts%bucketSeconds
}

type priceKey struct {
	asset  string
	bucket int64
}

// Fuse joins labeled discussion rows with hourly price state. Every labeled
// row is expanded once per asset; unlabeled rows are dropped. The future
// price of a bucket is the asset's price one horizon later, so the newest
// buckets have a null future until time catches up.
func Fuse(rows []models.PostCommentRow, labels []models.SentimentLabel, prices []models.PriceSnapshot, assets []string, horizonHours int) ([]Row, error) {
	if horizonHours <= 0 {
		return nil, fmt.Errorf("horizon must be positive, got %d", horizonHours)
	}
	if len(assets) == 0 {
		return nil, errors.New("no assets to fuse against")
	}

	labelIdx := make(map[string]models.SentimentLabel, len(labels))
	for _, label := range labels {
		key := label.PostID + "\x00" + label.CommentID
		if _, ok := labelIdx[key]; !ok {
			labelIdx[key] = label
		}
	}

	// First snapshot per (asset, bucket) wins, which keeps fusion
	// deterministic when a bucket holds several snapshots.
	snapIdx := make(map[priceKey]models.PriceSnapshot, len(prices))
	for _, snap := range prices {
		key := priceKey{asset: snap.Currency, bucket: BucketHour(snap.Timestamp)}
		if _, ok := snapIdx[key]; !ok {
			snapIdx[key] = snap
		}
	}

	horizon := int64(horizonHours) * bucketSeconds
	fused := make([]Row, 0, len(rows)*len(assets))

	for _, src := range rows {
		label, ok := labelIdx[src.PostID+"\x00"+src.CommentID]
		if !ok {
			continue
		}

		bucket := BucketHour(src.CommentCreatedUTC)
		for _, asset := range assets {
			row := Row{
				Asset:           asset,
				Bucket:          bucket,
				PostID:          src.PostID,
				CommentID:       src.CommentID,
				Subreddit:       src.Subreddit,
				PostScore:       src.PostScore,
				CommentScore:    src.CommentScore,
				Depth:           src.Depth,
				NumComments:     src.NumComments,
				CryptoSentiment: string(label.CryptoSentiment),
				FutureSentiment: string(label.FutureSentiment),
				Emotion:         string(label.Emotion),
				Subjective:      string(label.Subjective),
			}

			if snap, ok := snapIdx[priceKey{asset: asset, bucket: bucket}]; ok {
				row.PriceNow = sql.NullFloat64{Float64: snap.Price, Valid: true}
				row.MarketCapNow = snap.MarketCap
				row.TotalVolumeNow = snap.TotalVolume
				row.TotalSupplyNow = snap.TotalSupply
				row.ATHNow = snap.ATH
				row.HoursSinceATH = hoursSinceATH(bucket, snap.ATHDate)
			}
			if snap, ok := snapIdx[priceKey{asset: asset, bucket: bucket + horizon}]; ok {
				row.PriceFuture = sql.NullFloat64{Float64: snap.Price, Valid: true}
			}

			if row.PriceNow.Valid && row.PriceFuture.Valid && row.PriceNow.Float64 != 0 {
				diff := (row.PriceFuture.Float64 - row.PriceNow.Float64) / row.PriceNow.Float64 * 100
				row.PriceDiffPct = sql.NullFloat64{Float64: Round2(diff), Valid: true}
			}

			fused = append(fused, row)
		}
	}

	return fused, nil
}

// TrainingView keeps rows whose target is computable and orders them oldest
// first. The sort is stable so rows within a bucket keep their fused order.
func TrainingView(rows []Row) []Row {
	view := make([]Row, 0, len(rows))
	for _, row := range rows {
		if row.PriceNow.Valid && row.PriceFuture.Valid {
			view = append(view, row)
		}
	}
	sort.SliceStable(view, func(i, j int) bool {
		return view[i].Bucket < view[j].Bucket
	})
	return view
}

// InferenceView keeps only the newest bucket's rows. Rows are taken before
// any null filtering since the newest bucket rarely has a future price yet.
func InferenceView(rows []Row) ([]Row, error) {
	if len(rows) == 0 {
		return nil, ErrNoInferenceRows
	}

	maxBucket := rows[0].Bucket
	for _, row := range rows {
		if row.Bucket > maxBucket {
			maxBucket = row.Bucket
		}
	}

	view := make([]Row, 0, len(rows))
	for _, row := range rows {
		if row.Bucket == maxBucket {
			view = append(view, row)
		}
	}
	if len(view) == 0 {
		return nil, ErrNoInferenceRows
	}

	return view, nil
}

// Round2 rounds to 2 decimal places
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// hoursSinceATH is hours from the all-time-high date to the bucket, rounded
// to 2 decimals. Negative values cannot occur with real data but are passed
// through as computed. Null when the date is absent or unparseable.
func hoursSinceATH(bucket int64, athDate sql.NullString) sql.NullFloat64 {
	if !athDate.Valid || athDate.String == "" {
		return sql.NullFloat64{}
	}
	at, err := time.Parse(time.RFC3339, athDate.String)
	if err != nil {
		return sql.NullFloat64{}
	}
	hours := float64(bucket-at.Unix()) / 3600
	return sql.NullFloat64{Float64: Round2(hours), Valid: true}
}
