package price

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	ccxt "github.com/ccxt/ccxt/go/v4"
	"go.uber.org/zap"

	"github.com/hat3ck/cryptosense/pkg/logger"
	"github.com/hat3ck/cryptosense/pkg/models"
)

// BinanceSource fetches spot tickers through CCXT as a secondary snapshot
// source. Tickers carry price and volume only; market cap, supply and ATH
// stay null.
type BinanceSource struct {
	exchange *ccxt.Binance
}

// NewBinanceSource creates new Binance snapshot source
func NewBinanceSource() (*BinanceSource, error) {
	exchange := ccxt.NewBinance(map[string]interface{}{})
	exchange.SetOption("adjustForTimeDifference", true)

	if err := exchange.LoadMarkets(); err != nil {
		return nil, fmt.Errorf("failed to load Binance markets: %w", err)
	}

	logger.Info("binance snapshot source initialized",
		zap.Int("markets_count", len(exchange.Markets)),
	)

	return &BinanceSource{exchange: exchange}, nil
}

func (b *BinanceSource) Name() string {
	return "binance"
}

// FetchSnapshots fetches one ticker per currency. Currencies with no spot
// market against vsCurrency are skipped, not fatal.
func (b *BinanceSource) FetchSnapshots(ctx context.Context, currencies []string, vsCurrency string) ([]models.PriceSnapshot, error) {
	quote := strings.ToUpper(vsCurrency)
	if quote == "USD" {
		quote = "USDT"
	}

	now := time.Now().Unix()
	snapshots := make([]models.PriceSnapshot, 0, len(currencies))

	for _, currency := range currencies {
		symbol := fmt.Sprintf("%s/%s", strings.ToUpper(currency), quote)

		ticker, err := b.exchange.FetchTicker(symbol)
		if err != nil {
			logger.Warn("failed to fetch ticker, skipping currency",
				zap.String("symbol", symbol),
				zap.Error(err),
			)
			continue
		}
		if ticker.Last == nil {
			continue
		}

		snapshot := models.PriceSnapshot{
			Currency:      currency,
			Name:          strings.ToUpper(currency),
			Price:         *ticker.Last,
			PriceCurrency: vsCurrency,
			Timestamp:     now,
			Source:        b.Name(),
		}
		if ticker.BaseVolume != nil {
			snapshot.TotalVolume = sql.NullFloat64{Float64: *ticker.BaseVolume, Valid: true}
		}

		snapshots = append(snapshots, snapshot)
	}

	if len(snapshots) == 0 {
		return nil, fmt.Errorf("no tickers fetched for %s", strings.Join(currencies, ","))
	}

	return snapshots, nil
}
