package repository

import (
	"context"
	"fmt"
	"time"

	"sectorrotation/internal/domain"
	"sectorrotation/internal/util"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"
)

type alpacaPriceRepositoryHandler struct {
	MdClient *marketdata.Client
}

// NewAlpacaPriceRepository reads split and dividend adjusted daily bars
// from the Alpaca market data api. An empty endpoint uses the client's
// default data url
func NewAlpacaPriceRepository(apiKey, apiSecret string, endpoint string) PriceSource {
	mdClient := marketdata.NewClient(marketdata.ClientOpts{
		BaseURL:   endpoint,
		APIKey:    apiKey,
		APISecret: apiSecret,
	})

	return alpacaPriceRepositoryHandler{
		MdClient: mdClient,
	}
}

func (h alpacaPriceRepositoryHandler) List(ctx context.Context, symbols []string, start, end time.Time) ([]domain.AssetPrice, error) {
	if len(symbols) == 0 {
		return []domain.AssetPrice{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// daily bars are stamped at midnight New York time, a few hours
	// after midnight UTC, so the day after end excludes its bar
	results, err := h.MdClient.GetMultiBars(symbols, marketdata.GetBarsRequest{
		TimeFrame:  marketdata.OneDay,
		Adjustment: marketdata.All,
		Start:      start,
		End:        end.AddDate(0, 0, 1),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get bars for %v: %w", symbols, err)
	}

	return barsToPrices(symbols, results), nil
}

func barsToPrices(symbols []string, bars map[string][]marketdata.Bar) []domain.AssetPrice {
	out := []domain.AssetPrice{}
	for _, symbol := range symbols {
		for _, bar := range bars[symbol] {
			if bar.Close == 0 {
				continue
			}
			out = append(out, domain.AssetPrice{
				Symbol: symbol,
				Date:   util.ToDate(bar.Timestamp.In(newYork)),
				Price:  decimal.NewFromFloat(bar.Close),
			})
		}
	}
	return out
}

var newYork = loadLocationOrUTC("America/New_York")

func loadLocationOrUTC(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
