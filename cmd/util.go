package cmd

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"sectorrotation/api"
	"sectorrotation/internal/config"
	"sectorrotation/internal/repository"
	l1_service "sectorrotation/internal/service/l1"
	l3_service "sectorrotation/internal/service/l3"
	"sectorrotation/internal/util"
	"sectorrotation/pkg/etfholdings"
	"time"

	_ "github.com/lib/pq"
)

type Dependencies struct {
	Config          *config.Config
	Db              *sql.DB
	PriceService    l1_service.PriceService
	BacktestService l3_service.BacktestService
	HoldingsService l1_service.HoldingsService
}

func (d Dependencies) Close() error {
	if d.Db == nil {
		return nil
	}
	return d.Db.Close()
}

func CloseDependencies(handler *api.ApiHandler) {
	if handler.Closer == nil {
		return
	}
	err := handler.Closer()
	if err != nil {
		log.Fatalf("failed to close dependencies: %v", err)
	}
}

// NewDependencies loads the strategy config at configPath (defaults when
// empty) and wires the price source it names
func NewDependencies(configPath string) (*Dependencies, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	secrets, err := util.LoadSecrets()
	if err != nil {
		return nil, fmt.Errorf("failed to load secrets: %w", err)
	}

	deps := &Dependencies{
		Config: cfg,
	}

	var (
		priceSource repository.PriceSource
		priceStore  repository.PriceStore
	)
	switch cfg.PriceSource.Kind {
	case config.PriceSourcePostgres:
		if !secrets.Db.IsSet() {
			return nil, fmt.Errorf("price_source postgres needs db secrets")
		}
		dbConn, err := sql.Open("postgres", secrets.Db.ToConnectionStr())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to db: %w", err)
		}
		deps.Db = dbConn
		store := repository.NewAdjustedPriceRepository(dbConn)
		priceSource, priceStore = store, store
	case config.PriceSourceCsv:
		store := repository.NewCsvPriceRepository(cfg.PriceSource.Path)
		priceSource, priceStore = store, store
	case config.PriceSourceAlpaca:
		if !secrets.Alpaca.IsSet() {
			return nil, fmt.Errorf("price_source alpaca needs alpaca secrets")
		}
		priceSource = repository.NewAlpacaPriceRepository(secrets.Alpaca.ApiKey, secrets.Alpaca.ApiSecret, secrets.Alpaca.Endpoint)
	default:
		priceSource = repository.NewChartRepository()
	}

	deps.PriceService = l1_service.NewPriceService(priceSource, priceStore)
	deps.BacktestService = l3_service.NewBacktestService(deps.PriceService)

	holdingsClient := etfholdings.Client{
		HttpClient: &http.Client{Timeout: 30 * time.Second},
		ApiKey:     secrets.Holdings.ApiKey,
		BaseURL:    secrets.Holdings.BaseURL,
	}
	deps.HoldingsService = l1_service.NewHoldingsService(repository.NewHoldingsRepository(holdingsClient))

	return deps, nil
}

// NewIngestService reads from Yahoo and writes into the configured store
func (d Dependencies) NewIngestService() (l1_service.PriceService, error) {
	var priceStore repository.PriceStore
	switch d.Config.PriceSource.Kind {
	case config.PriceSourcePostgres:
		priceStore = repository.NewAdjustedPriceRepository(d.Db)
	case config.PriceSourceCsv:
		priceStore = repository.NewCsvPriceRepository(d.Config.PriceSource.Path)
	default:
		return nil, fmt.Errorf("price_source %s has nowhere to ingest into", d.Config.PriceSource.Kind)
	}
	return l1_service.NewPriceService(repository.NewChartRepository(), priceStore), nil
}

func InitializeDependencies(configPath string) (*api.ApiHandler, error) {
	deps, err := NewDependencies(configPath)
	if err != nil {
		return nil, err
	}

	apiHandler := &api.ApiHandler{
		Defaults:        *deps.Config,
		BacktestService: deps.BacktestService,
		HoldingsService: deps.HoldingsService,
		Closer:          deps.Close,
	}

	return apiHandler, nil
}
