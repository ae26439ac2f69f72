package repository

import (
	"context"
	"fmt"

	"sectorrotation/internal/domain"
	"sectorrotation/pkg/etfholdings"
)

type HoldingsRepository interface {
	// List returns every constituent of the sector ETF, unordered.
	// Weight is a percentage
	List(ctx context.Context, sector string) ([]domain.Holding, error)
}

type holdingsRepositoryHandler struct {
	Client etfholdings.Client
}

func NewHoldingsRepository(client etfholdings.Client) HoldingsRepository {
	return holdingsRepositoryHandler{Client: client}
}

func (h holdingsRepositoryHandler) List(ctx context.Context, sector string) ([]domain.Holding, error) {
	holders, err := h.Client.GetHolders(ctx, sector)
	if err != nil {
		return nil, fmt.Errorf("failed to get holdings for %s: %w", sector, err)
	}

	out := make([]domain.Holding, 0, len(holders))
	for _, holder := range holders {
		if holder.Asset == "" {
			continue
		}
		out = append(out, domain.Holding{
			Symbol: holder.Asset,
			Name:   holder.Name,
			Weight: holder.WeightPercentage,
		})
	}
	return out, nil
}
