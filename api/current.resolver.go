package api

import (
	"sectorrotation/internal/domain"
	"time"

	"github.com/gin-gonic/gin"
)

type currentSelectionResponse struct {
	Date       string                            `json:"date"`
	AsOf       string                            `json:"asOf"`
	Selection  []string                          `json:"selection"`
	Indicators map[string]domain.IndicatorValues `json:"indicators"`
}

func (h ApiHandler) currentSelection(c *gin.Context) {
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

	current, err := h.BacktestService.CurrentSelection(c.Request.Context(), *input)
	if err != nil {
		returnErrorJson(err, c)
		return
	}

	c.JSON(200, currentSelectionResponse{
		Date:       current.Snapshot.Date.Format(time.DateOnly),
		AsOf:       current.AsOf.Format(time.DateOnly),
		Selection:  current.Selection.Symbols,
		Indicators: current.Snapshot.Values,
	})
}
