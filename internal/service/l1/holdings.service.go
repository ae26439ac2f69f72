package l1_service

import (
	"context"
	"fmt"
	"sectorrotation/internal/domain"
	"sectorrotation/internal/repository"
	"sort"
)

const DefaultHoldingsCount = 10

type HoldingsService interface {
	TopHoldings(ctx context.Context, sector string, n int) ([]domain.Holding, error)
}

type holdingsServiceHandler struct {
	HoldingsRepository repository.HoldingsRepository
}

func NewHoldingsService(holdingsRepository repository.HoldingsRepository) HoldingsService {
	return holdingsServiceHandler{
		HoldingsRepository: holdingsRepository,
	}
}

// TopHoldings returns the n largest positions of a sector fund, ranked
// from 1 by descending weight
func (h holdingsServiceHandler) TopHoldings(ctx context.Context, sector string, n int) ([]domain.Holding, error) {
	if n <= 0 {
		n = DefaultHoldingsCount
	}

	holdings, err := h.HoldingsRepository.List(ctx, sector)
	if err != nil {
		return nil, fmt.Errorf("failed to get holdings for %s: %w", sector, err)
	}

	sort.SliceStable(holdings, func(i, j int) bool {
		if holdings[i].Weight != holdings[j].Weight {
			return holdings[i].Weight > holdings[j].Weight
		}
		return holdings[i].Symbol < holdings[j].Symbol
	})

	if len(holdings) > n {
		holdings = holdings[:n]
	}
	for i := range holdings {
		holdings[i].Rank = i + 1
	}

	return holdings, nil
}
