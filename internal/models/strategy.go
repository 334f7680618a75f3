package models

import "time"

type StrategyType string

const (
	StrategyPivot  StrategyType = "pivot"
	StrategyRibbon StrategyType = "ribbon"
)

// Side — "BUY"/"SELL" или пустая строка.
type Side string

const (
	SideNone Side = ""
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Signal — неизменяемое значение: стратегия его родила, риск-менеджер
// один раз употребил, дальше сигнал никому не нужен.
type Signal struct {
	Symbol   string
	Side     Side
	Price    float64 // цена на момент сигнала (last close)
	StopDist float64 // дистанция до SL в единицах цены
	TakeDist float64 // дистанция до TP в единицах цены
	Strategy StrategyType
	At       time.Time
	Reason   string
}
