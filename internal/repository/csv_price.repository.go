package repository

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"sectorrotation/internal/domain"
	"sectorrotation/internal/util"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

// PriceCsvRow is one line of a long-format price file:
// date,symbol,close
type PriceCsvRow struct {
	Date   string  `csv:"date"`
	Symbol string  `csv:"symbol"`
	Close  float64 `csv:"close"`
}

type csvPriceRepositoryHandler struct {
	Path string
}

func NewCsvPriceRepository(path string) PriceStore {
	return csvPriceRepositoryHandler{Path: path}
}

func (h csvPriceRepositoryHandler) readRows() ([]PriceCsvRow, error) {
	f, err := os.Open(h.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open price file: %w", err)
	}
	defer f.Close()

	rows := []PriceCsvRow{}
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse price file %s: %w", h.Path, err)
	}
	return rows, nil
}

func (h csvPriceRepositoryHandler) List(ctx context.Context, symbols []string, start, end time.Time) ([]domain.AssetPrice, error) {
	rows, err := h.readRows()
	if err != nil {
		return nil, err
	}

	wanted := map[string]bool{}
	for _, s := range symbols {
		wanted[s] = true
	}

	out := []domain.AssetPrice{}
	for i, row := range rows {
		if !wanted[row.Symbol] {
			continue
		}
		date, err := util.ParseDate(row.Date)
		if err != nil {
			return nil, fmt.Errorf("row %d of %s: %w", i+2, h.Path, err)
		}
		if date.Before(start) || date.After(end) {
			continue
		}
		out = append(out, domain.AssetPrice{
			Symbol: row.Symbol,
			Date:   date,
			Price:  decimal.NewFromFloat(row.Close),
		})
	}

	return out, nil
}

// Save merges prices into the file, replacing existing (symbol, date)
// rows, and rewrites it sorted by date then symbol
func (h csvPriceRepositoryHandler) Save(ctx context.Context, prices []domain.AssetPrice) error {
	existing := []PriceCsvRow{}
	if _, err := os.Stat(h.Path); err == nil {
		existing, err = h.readRows()
		if err != nil {
			return err
		}
	}

	type key struct {
		date   string
		symbol string
	}
	merged := map[key]PriceCsvRow{}
	for _, row := range existing {
		merged[key{row.Date, row.Symbol}] = row
	}
	for _, p := range prices {
		row := PriceCsvRow{
			Date:   p.Date.Format(time.DateOnly),
			Symbol: p.Symbol,
			Close:  p.Price.InexactFloat64(),
		}
		merged[key{row.Date, row.Symbol}] = row
	}

	rows := make([]PriceCsvRow, 0, len(merged))
	for _, row := range merged {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Date != rows[j].Date {
			return rows[i].Date < rows[j].Date
		}
		return rows[i].Symbol < rows[j].Symbol
	})

	f, err := os.Create(h.Path)
	if err != nil {
		return fmt.Errorf("failed to create price file: %w", err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("failed to write price file: %w", err)
	}
	return nil
}
