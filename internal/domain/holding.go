package domain

type Holding struct {
	Rank   int     `json:"rank"`
	Symbol string  `json:"symbol"`
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}
