package price

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hat3ck/cryptosense/pkg/models"
)

const coingeckoAPIURL = "https://api.coingecko.com/api/v3"

// CoinGeckoSource fetches market snapshots from the CoinGecko markets API
type CoinGeckoSource struct {
	apiKey string
	client *http.Client
}

// NewCoinGeckoSource creates new CoinGecko snapshot source
func NewCoinGeckoSource(apiKey string) *CoinGeckoSource {
	return &CoinGeckoSource{
		apiKey: apiKey,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (cg *CoinGeckoSource) Name() string {
	return "coingecko"
}

// FetchSnapshots fetches market data for the given currency symbols
func (cg *CoinGeckoSource) FetchSnapshots(ctx context.Context, currencies []string, vsCurrency string) ([]models.PriceSnapshot, error) {
	params := url.Values{}
	params.Set("vs_currency", vsCurrency)
	params.Set("symbols", strings.Join(currencies, ","))
	params.Set("order", "market_cap_desc")
	params.Set("per_page", fmt.Sprintf("%d", len(currencies)))

	reqURL := fmt.Sprintf("%s/coins/markets?%s", coingeckoAPIURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if cg.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", cg.apiKey)
	}

	resp, err := cg.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	var result []struct {
		Symbol       string   `json:"symbol"`
		Name         string   `json:"name"`
		CurrentPrice float64  `json:"current_price"`
		MarketCap    *float64 `json:"market_cap"`
		TotalVolume  *float64 `json:"total_volume"`
		TotalSupply  *float64 `json:"total_supply"`
		ATH          *float64 `json:"ath"`
		ATHDate      string   `json:"ath_date"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("no market data returned for %s", strings.Join(currencies, ","))
	}

	now := time.Now().Unix()
	snapshots := make([]models.PriceSnapshot, 0, len(result))
	for _, item := range result {
		snapshots = append(snapshots, models.PriceSnapshot{
			Currency:      item.Symbol,
			Name:          item.Name,
			Price:         item.CurrentPrice,
			PriceCurrency: vsCurrency,
			Timestamp:     now,
			Source:        cg.Name(),
			MarketCap:     nullFloat(item.MarketCap),
			TotalVolume:   nullFloat(item.TotalVolume),
			TotalSupply:   nullFloat(item.TotalSupply),
			ATH:           nullFloat(item.ATH),
			ATHDate:       nullString(item.ATHDate),
		})
	}

	return snapshots, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
