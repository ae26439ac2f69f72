package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sectorrotation/internal/db/models/postgres/public/model"
	. "sectorrotation/internal/db/models/postgres/public/table"
	"sectorrotation/internal/domain"
	"sectorrotation/internal/util"

	. "github.com/go-jet/jet/v2/postgres"
	"github.com/shopspring/decimal"
)

// PriceSource is anything that can produce daily closes for a set of
// symbols. Rows may come back in any order and with gaps
type PriceSource interface {
	List(ctx context.Context, symbols []string, start, end time.Time) ([]domain.AssetPrice, error)
}

// PriceStore is a PriceSource that ingested prices can be written to
type PriceStore interface {
	PriceSource
	Save(ctx context.Context, prices []domain.AssetPrice) error
}

type AdjustedPriceRepository interface {
	PriceStore
	Add(tx *sql.Tx, adjPrices []model.AdjustedPrice) error
}

type adjustedPriceRepositoryHandler struct {
	Db *sql.DB
}

func NewAdjustedPriceRepository(db *sql.DB) AdjustedPriceRepository {
	return adjustedPriceRepositoryHandler{Db: db}
}

func (h adjustedPriceRepositoryHandler) Add(tx *sql.Tx, adjPrices []model.AdjustedPrice) error {
	if len(adjPrices) == 0 {
		return nil
	}
	query := AdjustedPrice.
		INSERT(AdjustedPrice.MutableColumns).
		MODELS(adjPrices).
		ON_CONFLICT(
			AdjustedPrice.Symbol, AdjustedPrice.Date,
		).DO_UPDATE(
		SET(
			AdjustedPrice.Price.SET(AdjustedPrice.EXCLUDED.Price),
		),
	)

	_, err := query.Exec(tx)
	if err != nil {
		return fmt.Errorf("failed to add adjusted prices to db: %w", err)
	}

	return nil
}

func (h adjustedPriceRepositoryHandler) Save(ctx context.Context, prices []domain.AssetPrice) error {
	tx, err := h.Db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	models := make([]model.AdjustedPrice, 0, len(prices))
	for _, p := range prices {
		models = append(models, model.AdjustedPrice{
			Symbol:    p.Symbol,
			Date:      util.ToDate(p.Date),
			Price:     p.Price.InexactFloat64(),
			CreatedAt: now,
		})
	}
	if err := h.Add(tx, models); err != nil {
		return err
	}

	return tx.Commit()
}

func (h adjustedPriceRepositoryHandler) List(ctx context.Context, symbols []string, start, end time.Time) ([]domain.AssetPrice, error) {
	if len(symbols) == 0 {
		return []domain.AssetPrice{}, nil
	}
	symbolExpressions := []Expression{}
	for _, s := range symbols {
		symbolExpressions = append(symbolExpressions, String(s))
	}

	query := AdjustedPrice.
		SELECT(AdjustedPrice.AllColumns).
		WHERE(
			AND(
				AdjustedPrice.Symbol.IN(symbolExpressions...),
				AdjustedPrice.Date.BETWEEN(DateT(start), DateT(end)),
			),
		).
		ORDER_BY(AdjustedPrice.Date.ASC(), AdjustedPrice.Symbol.ASC())

	result := []model.AdjustedPrice{}
	err := query.QueryContext(ctx, h.Db, &result)
	if err != nil {
		return nil, fmt.Errorf("failed to list prices between %s and %s: %w", start.Format(time.DateOnly), end.Format(time.DateOnly), err)
	}

	out := []domain.AssetPrice{}
	for _, p := range result {
		out = append(out, domain.AssetPrice{
			Symbol: p.Symbol,
			Date:   p.Date,
			Price:  decimal.NewFromFloat(p.Price),
		})
	}

	return out, nil
}
