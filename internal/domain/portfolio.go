package domain

import (
	"time"
)

// Selection is the set of instruments held for the period ending on
// Date. An empty selection means the strategy sits in cash
type Selection struct {
	Date    time.Time `json:"date"`
	Symbols []string  `json:"symbols"`
}

func (s Selection) IsEmpty() bool {
	return len(s.Symbols) == 0
}

type ReturnPoint struct {
	Date   time.Time `json:"date"`
	Return float64   `json:"return"`
}

const EquityBase = 1.0

type EquityPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// EquityCurve is the growth of one unit invested at EquityBase before
// the first return point
type EquityCurve []EquityPoint

func NewEquityCurve(returns []ReturnPoint) EquityCurve {
	out := make(EquityCurve, 0, len(returns))
	value := EquityBase
	for _, r := range returns {
		value *= 1 + r.Return
		out = append(out, EquityPoint{
			Date:  r.Date,
			Value: value,
		})
	}
	return out
}

func (e EquityCurve) Final() float64 {
	if len(e) == 0 {
		return EquityBase
	}
	return e[len(e)-1].Value
}
