package l1_service

import (
	"context"
	"fmt"
	"sectorrotation/internal/domain"
	"sectorrotation/internal/logger"
	"sectorrotation/internal/repository"
	"sectorrotation/internal/util"
	"sort"
	"sync"
	"time"
)

/**

the price service is the only place the backtest touches market data. it
loads every close the run needs up front, puts all symbols on one calendar
and hands back a read-only PriceSeries. nothing downstream does i/o

*/

type PriceService interface {
	LoadPriceSeries(ctx context.Context, symbols []string, start, end time.Time) (*domain.PriceSeries, error)
	IngestPrices(ctx context.Context, symbols []string, start, end time.Time) error
}

type priceServiceHandler struct {
	PriceSource repository.PriceSource
	// destination for IngestPrices. nil when the service is read-only
	PriceStore repository.PriceStore
}

func NewPriceService(priceSource repository.PriceSource, priceStore repository.PriceStore) PriceService {
	return &priceServiceHandler{
		PriceSource: priceSource,
		PriceStore:  priceStore,
	}
}

// LoadPriceSeries fetches closes for symbols and aligns them on the union
// of their trading days. Gaps are forward-filled and leading rows where any
// symbol has no price yet are dropped. Symbols with no rows at all are
// reported in Missing and left out of the series
func (h priceServiceHandler) LoadPriceSeries(ctx context.Context, symbols []string, start, end time.Time) (*domain.PriceSeries, error) {
	log := logger.FromContext(ctx)

	if len(symbols) == 0 {
		return nil, fmt.Errorf("no symbols requested")
	}

	prices, err := h.PriceSource.List(ctx, symbols, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load prices: %w", err)
	}

	series, err := alignPrices(symbols, prices)
	if err != nil {
		return nil, err
	}

	if len(series.Missing) > 0 {
		log.Warnf("no price history for %v between %s and %s", series.Missing, start.Format(time.DateOnly), end.Format(time.DateOnly))
	}
	if series.Len() > 0 {
		log.Infof("loaded %d rows for %d symbols (%s to %s)", series.Len(), len(series.Symbols), series.Dates[0].Format(time.DateOnly), series.Dates[series.Len()-1].Format(time.DateOnly))
	}

	return series, nil
}

func alignPrices(symbols []string, prices []domain.AssetPrice) (*domain.PriceSeries, error) {
	requested := map[string]bool{}
	for _, s := range symbols {
		requested[s] = true
	}

	bySymbol := map[string]map[time.Time]float64{}
	dateSet := map[time.Time]bool{}
	for _, p := range prices {
		if !requested[p.Symbol] {
			continue
		}
		date := util.ToDate(p.Date)
		if _, ok := bySymbol[p.Symbol]; !ok {
			bySymbol[p.Symbol] = map[time.Time]float64{}
		}
		bySymbol[p.Symbol][date] = p.Price.InexactFloat64()
		dateSet[date] = true
	}

	series := &domain.PriceSeries{
		Symbols: []string{},
		Dates:   []time.Time{},
		Prices:  map[string][]float64{},
		Missing: []string{},
	}

	seen := map[string]bool{}
	for _, s := range symbols {
		if seen[s] {
			continue
		}
		seen[s] = true
		if _, ok := bySymbol[s]; ok {
			series.Symbols = append(series.Symbols, s)
		} else {
			series.Missing = append(series.Missing, s)
		}
	}
	if len(series.Symbols) == 0 {
		return nil, fmt.Errorf("no prices found for any of %v", symbols)
	}

	calendar := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		calendar = append(calendar, d)
	}
	sort.Slice(calendar, func(i, j int) bool {
		return calendar[i].Before(calendar[j])
	})

	// first row on which every symbol has a price, possibly forward-filled
	firstComplete := 0
	for _, s := range series.Symbols {
		for i, d := range calendar {
			if _, ok := bySymbol[s][d]; ok {
				if i > firstComplete {
					firstComplete = i
				}
				break
			}
		}
	}

	series.Dates = calendar[firstComplete:]
	for _, s := range series.Symbols {
		closes := make([]float64, len(calendar))
		var last float64
		for i, d := range calendar {
			if p, ok := bySymbol[s][d]; ok {
				last = p
			}
			closes[i] = last
		}
		series.Prices[s] = closes[firstComplete:]
	}

	return series, nil
}

// IngestPrices copies closes for symbols from the configured source into
// the store. Symbols are fetched concurrently and written in one batch
func (h priceServiceHandler) IngestPrices(ctx context.Context, symbols []string, start, end time.Time) error {
	log := logger.FromContext(ctx)

	if h.PriceStore == nil {
		return fmt.Errorf("price service has no store to ingest into")
	}
	if len(symbols) == 0 {
		return fmt.Errorf("no symbols to ingest")
	}

	numGoroutines := 4
	inputCh := make(chan string, len(symbols))
	for _, s := range symbols {
		inputCh <- s
	}
	close(inputCh)

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		out    []domain.AssetPrice
		errors []error
	)
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range inputCh {
				if ctx.Err() != nil {
					return
				}
				prices, err := h.PriceSource.List(ctx, []string{symbol}, start, end)
				mu.Lock()
				if err != nil {
					log.Warnf("failed to ingest prices for %s: %s", symbol, err.Error())
					errors = append(errors, fmt.Errorf("%s: %w", symbol, err))
				} else {
					log.Infof("fetched %d prices for %s", len(prices), symbol)
					out = append(out, prices...)
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	if len(errors) > 0 {
		return fmt.Errorf("failed to ingest %d/%d symbols. first err: %w", len(errors), len(symbols), errors[0])
	}

	if err := h.PriceStore.Save(ctx, out); err != nil {
		return fmt.Errorf("failed to save %d prices: %w", len(out), err)
	}

	return nil
}
