package fusion

import (
	"database/sql"
	"sort"

	"github.com/cinar/indicator"

	"github.com/hat3ck/cryptosense/pkg/models"
)

const (
	rsiPeriod = 14
	smaPeriod = 24
)

// EnrichIndicators annotates fused rows with RSI(14) and SMA(24) computed
// over each asset's hourly close series. Rows in buckets where the warm-up
// window is not yet full keep null indicator values.
func EnrichIndicators(rows []Row, prices []models.PriceSnapshot) {
	if len(rows) == 0 || len(prices) == 0 {
		return
	}

	series := buildHourlySeries(prices)

	type indicatorKey struct {
		asset  string
		bucket int64
	}
	rsiIdx := make(map[indicatorKey]float64)
	smaIdx := make(map[indicatorKey]float64)

	for asset, s := range series {
		if len(s.closes) == 0 {
			continue
		}
		_, rsi := indicator.Rsi(s.closes)
		sma := indicator.Sma(smaPeriod, s.closes)
		for i, bucket := range s.buckets {
			if i >= rsiPeriod {
				rsiIdx[indicatorKey{asset, bucket}] = rsi[i]
			}
			if i >= smaPeriod-1 {
				smaIdx[indicatorKey{asset, bucket}] = sma[i]
			}
		}
	}

	for i := range rows {
		key := indicatorKey{rows[i].Asset, rows[i].Bucket}
		if v, ok := rsiIdx[key]; ok {
			rows[i].RSI14 = sql.NullFloat64{Float64: Round2(v), Valid: true}
		}
		if v, ok := smaIdx[key]; ok {
			rows[i].SMA24 = sql.NullFloat64{Float64: Round2(v), Valid: true}
		}
	}
}

type assetSeries struct {
	buckets []int64
	closes  []float64
}

// buildHourlySeries collapses snapshots into one close per (asset, bucket),
// first snapshot wins, buckets ascending
func buildHourlySeries(prices []models.PriceSnapshot) map[string]*assetSeries {
	byAsset := make(map[string]map[int64]float64)

	for _, snap := range prices {
		bucket := BucketHour(snap.Timestamp)
		if byAsset[snap.Currency] == nil {
			byAsset[snap.Currency] = make(map[int64]float64)
		}
		if _, ok := byAsset[snap.Currency][bucket]; !ok {
			byAsset[snap.Currency][bucket] = snap.Price
		}
	}

	series := make(map[string]*assetSeries, len(byAsset))
	for asset, buckets := range byAsset {
		s := &assetSeries{}
		for bucket := range buckets {
			s.buckets = append(s.buckets, bucket)
		}
		sort.Slice(s.buckets, func(i, j int) bool { return s.buckets[i] < s.buckets[j] })
		for _, bucket := range s.buckets {
			s.closes = append(s.closes, buckets[bucket])
		}
		series[asset] = s
	}

	return series
}
