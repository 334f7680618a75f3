package models

import "time"

type Candle struct {
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
	Start  time.Time
	End    time.Time
}

// SymbolMeta — брокерские параметры инструмента (из шлюза, не меняются внутри дня).
type SymbolMeta struct {
	Point        float64 // минимальный шаг цены, напр. 0.00001
	PipSize      float64 // размер пипса, напр. 0.0001
	TickValue    float64 // стоимость point на 1.0 лот в валюте счёта
	LotStep      float64
	MinLot       float64
	MaxLot       float64
	ContractSize float64 // единиц базовой валюты на 1.0 лот, обычно 100000
	Disabled     bool    // торговля по инструменту выключена на стороне брокера
}

// PipValue — стоимость одного пипса на 1.0 лот.
// pip_value = tick_value * (pip / point), как в MT-подобных шлюзах.
func (m SymbolMeta) PipValue() float64 {
	if m.Point <= 0 || m.TickValue <= 0 {
		return 0
	}
	pip := m.PipSize
	if pip <= 0 {
		pip = m.Point
	}
	return m.TickValue * (pip / m.Point)
}

// SymbolContext — снапшот рынка по одному инструменту.
// Владеет и обновляет его только marketdata; остальные читают.
type SymbolContext struct {
	Symbol     string
	Bid        float64
	Ask        float64
	History    []Candle // закрытые свечи, старые -> новые
	ATR        float64  // ATR по History, EMA-сглаживание со span=period
	Meta       SymbolMeta
	Strategies []StrategyType
	UpdatedAt  time.Time
}

func (c SymbolContext) LastClose() float64 {
	if len(c.History) == 0 {
		return 0
	}
	return c.History[len(c.History)-1].Close
}

func (c SymbolContext) StaleAt(now time.Time, maxAge time.Duration) bool {
	if maxAge <= 0 {
		return false
	}
	return c.UpdatedAt.IsZero() || now.Sub(c.UpdatedAt) > maxAge
}
