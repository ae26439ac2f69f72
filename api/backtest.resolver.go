package api

import (
	"errors"
	"fmt"
	"io"
	"sectorrotation/internal/config"
	"sectorrotation/internal/domain"
	l3_service "sectorrotation/internal/service/l3"
	"time"

	"github.com/gin-gonic/gin"
)

// BacktestRequest overrides the server's default strategy settings. Any
// field left out keeps its default
type BacktestRequest struct {
	Start               *string  `json:"start"`
	End                 *string  `json:"end"`
	LookbackDays        *int     `json:"lookbackDays"`
	RebalanceFrequency  *string  `json:"rebalanceFrequency"`
	TopNSectors         *int     `json:"topNSectors"`
	UseMA200Filter      *bool    `json:"useMa200Filter"`
	UseVolatilityFilter *bool    `json:"useVolatilityFilter"`
	StopLoss            *float64 `json:"stopLoss"`
	SectorETFs          []string `json:"sectorEtfs"`
	BenchmarkETF        *string  `json:"benchmarkEtf"`
}

// an empty body runs with the defaults
func bindBacktestRequest(c *gin.Context) (BacktestRequest, error) {
	var requestBody BacktestRequest
	if c.Request.ContentLength == 0 {
		return requestBody, nil
	}
	if err := c.ShouldBindJSON(&requestBody); err != nil {
		// chunked requests report an unknown length
		if errors.Is(err, io.EOF) {
			return BacktestRequest{}, nil
		}
		return requestBody, fmt.Errorf("failed to read request body: %w", err)
	}
	return requestBody, nil
}

func (r BacktestRequest) apply(c config.Config) config.Config {
	if r.Start != nil {
		c.StartDate = *r.Start
	}
	if r.End != nil {
		c.EndDate = *r.End
	}
	if r.LookbackDays != nil {
		c.LookbackDays = *r.LookbackDays
	}
	if r.RebalanceFrequency != nil {
		c.RebalanceFrequency = *r.RebalanceFrequency
	}
	if r.TopNSectors != nil {
		c.TopNSectors = *r.TopNSectors
	}
	if r.UseMA200Filter != nil {
		c.UseMA200Filter = *r.UseMA200Filter
	}
	if r.UseVolatilityFilter != nil {
		c.UseVolatilityFilter = *r.UseVolatilityFilter
	}
	if r.StopLoss != nil {
		c.StopLoss = *r.StopLoss
	}
	if len(r.SectorETFs) > 0 {
		c.SectorETFs = r.SectorETFs
	}
	if r.BenchmarkETF != nil {
		c.BenchmarkETF = *r.BenchmarkETF
	}
	return c
}

func (r BacktestRequest) toInput(defaults config.Config) (*l3_service.BacktestInput, error) {
	cfg := r.apply(defaults)
	rotationConfig, err := cfg.ToRotationConfig()
	if err != nil {
		return nil, err
	}
	start, end, err := cfg.DateRange(time.Now())
	if err != nil {
		return nil, err
	}
	if !start.Before(end) {
		return nil, domain.ConfigError{Field: "end", Reason: "must be after start"}
	}
	return &l3_service.BacktestInput{
		RotationConfig: rotationConfig,
		Start:          start,
		End:            end,
	}, nil
}

type returnPointResponse struct {
	Date   string  `json:"date"`
	Return float64 `json:"return"`
}

type selectionResponse struct {
	Date    string   `json:"date"`
	Symbols []string `json:"symbols"`
}

type BacktestResponse struct {
	Strategy   []returnPointResponse         `json:"strategy"`
	Benchmark  []returnPointResponse         `json:"benchmark"`
	Selections []selectionResponse           `json:"selections"`
	Metrics    *l3_service.PerformanceReport `json:"metrics"`
	Missing    []string                      `json:"missing"`
}

func toReturnPointResponses(points []domain.ReturnPoint) []returnPointResponse {
	out := make([]returnPointResponse, 0, len(points))
	for _, p := range points {
		out = append(out, returnPointResponse{
			Date:   p.Date.Format(time.DateOnly),
			Return: p.Return,
		})
	}
	return out
}

func (h ApiHandler) backtest(c *gin.Context) {
	requestBody, err := bindBacktestRequest(c)
	if err != nil {
		returnErrorJsonCode(err, c, 400)
		return
	}

	input, err := requestBody.toInput(h.Defaults)
	if err != nil {
		returnErrorJson(err, c)
		return
	}

	result, err := h.BacktestService.Backtest(c.Request.Context(), *input)
	if err != nil {
		returnErrorJson(err, c)
		return
	}

	selections := make([]selectionResponse, 0, len(result.Selections))
	for _, s := range result.Selections {
		selections = append(selections, selectionResponse{
			Date:    s.Date.Format(time.DateOnly),
			Symbols: s.Symbols,
		})
	}

	out := BacktestResponse{
		Strategy:   toReturnPointResponses(result.Strategy),
		Benchmark:  toReturnPointResponses(result.Benchmark),
		Selections: selections,
		Missing:    result.Missing,
	}
	// too short a run for statistics is still a valid backtest
	if report, err := l3_service.NewPerformanceReport(result, input.RotationConfig.RebalanceFrequency); err == nil {
		out.Metrics = report
	}

	c.JSON(200, out)
}
