package l2_service

import (
	"math"
	"sectorrotation/internal/domain"
)

// Aggregate turns a selection into the realized return of its period: the
// equal-weight mean of the selected instruments' period returns, floored
// at cfg.StopLoss. Instruments without a period return are left out of the
// mean. With nothing to average the position is cash and earns 0 before
// the floor is applied
func Aggregate(selection domain.Selection, periodReturns map[string]*float64, cfg domain.RotationConfig) domain.ReturnPoint {
	ret := 0.0

	sum, count := 0.0, 0
	for _, symbol := range selection.Symbols {
		r := periodReturns[symbol]
		if r == nil {
			continue
		}
		sum += *r
		count++
	}
	if count > 0 {
		ret = sum / float64(count)
	}

	return domain.ReturnPoint{
		Date:   selection.Date,
		Return: math.Max(ret, cfg.StopLoss),
	}
}
