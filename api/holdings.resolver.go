package api

import (
	"fmt"
	"sectorrotation/internal/domain"
	l1_service "sectorrotation/internal/service/l1"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

type holdingsResponse struct {
	Sector   string           `json:"sector"`
	Holdings []domain.Holding `json:"holdings"`
}

func (h ApiHandler) holdings(c *gin.Context) {
	sector := strings.ToUpper(c.Param("sector"))

	n := l1_service.DefaultHoldingsCount
	if raw := c.Query("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			returnErrorJsonCode(fmt.Errorf("n must be a positive integer, got %q", raw), c, 400)
			return
		}
		n = parsed
	}

	holdings, err := h.HoldingsService.TopHoldings(c.Request.Context(), sector, n)
	if err != nil {
		returnErrorJson(err, c)
		return
	}

	c.JSON(200, holdingsResponse{
		Sector:   sector,
		Holdings: holdings,
	})
}
