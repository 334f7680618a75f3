package models

import "time"

type PosKey struct {
	Symbol string
	Side   Side
}

type PositionState string

const (
	PosPendingOpen PositionState = "PENDING_OPEN"
	PosOpen        PositionState = "OPEN"
	PosClosed      PositionState = "CLOSED"
	PosFailed      PositionState = "FAILED"
)

type Position struct {
	Ticket   string // broker order/ticket id
	Symbol   string
	Side     Side
	Lot      float64
	Entry    float64
	SL       float64
	TP       float64
	Risk     float64 // риск по стопу в валюте счёта на момент открытия
	Strategy StrategyType
	State    PositionState
	OpenedAt time.Time

	// трейлинг: сколько раз подряд брокер не принял перенос стопа.
	// Сбрасывается при успешном ModifyStop; действующий стоп на брокере
	// остаётся в силе, так что это не фатально.
	ModifyRetries int
	PendingSL     float64 // стоп, который хотим, но брокер ещё не принял
}

func (p Position) Key() PosKey { return PosKey{Symbol: p.Symbol, Side: p.Side} }

// ProfitAt — нереализованный P&L в валюте счёта по текущей цене.
func (p Position) ProfitAt(price float64, meta SymbolMeta) float64 {
	pipValue := meta.PipValue()
	pip := meta.PipSize
	if pip <= 0 || pipValue <= 0 {
		return 0
	}
	var dist float64
	if p.Side == SideBuy {
		dist = price - p.Entry
	} else {
		dist = p.Entry - price
	}
	return dist / pip * pipValue * p.Lot
}

type Proposal struct {
	Symbol   string
	Side     Side
	Lot      float64
	Entry    float64
	SL       float64
	TP       float64
	Risk     float64 // эффективный риск по стопу, в валюте счёта
	Strategy StrategyType
}

type RejectReason string

const (
	RejectDailyProfit    RejectReason = "daily_profit_reached"
	RejectDailyLoss      RejectReason = "daily_loss_reached"
	RejectLowFreeMargin  RejectReason = "low_free_margin"
	RejectLotBelowMin    RejectReason = "lot_below_min"
	RejectPositionExists RejectReason = "position_exists"
	RejectLotClamped     RejectReason = "lot_clamped"
	RejectRiskBudget     RejectReason = "risk_budget_exceeded"
	RejectMarketClosed   RejectReason = "market_closed"
)

// Rejection — ожидаемый, частый исход Evaluate. Не ошибка.
type Rejection struct {
	Reason RejectReason
	Detail string
}

func (r Rejection) String() string {
	if r.Detail == "" {
		return string(r.Reason)
	}
	return string(r.Reason) + ": " + r.Detail
}

type OpenFailReason string

const (
	OpenFailMargin   OpenFailReason = "margin_rejected"
	OpenFailDisabled OpenFailReason = "trading_disabled"
	OpenFailRequote  OpenFailReason = "requote"
	OpenFailTimeout  OpenFailReason = "timeout"
)

// OpenFailure — типизированный отказ брокера на открытие. Позиция не создаётся.
type OpenFailure struct {
	Reason OpenFailReason
	Err    error
}

func (f *OpenFailure) Error() string {
	if f.Err == nil {
		return string(f.Reason)
	}
	return string(f.Reason) + ": " + f.Err.Error()
}

func (f *OpenFailure) Unwrap() error { return f.Err }

type CloseReason string

const (
	CloseTakeProfit CloseReason = "take_profit"
	CloseStopLoss   CloseReason = "stop_loss"
	CloseLossLimit  CloseReason = "loss_limit"
	CloseManual     CloseReason = "manual"
)

type ClosedPosition struct {
	Position
	ClosePrice float64
	Profit     float64 // реализованный P&L в валюте счёта
	Reason     CloseReason
	ClosedAt   time.Time
}

// TrailDecision — что делать со стопом позиции на этом цикле.
type TrailDecision struct {
	MoveSL bool
	NewSL  float64
	Close  bool // цена уже за SL/TP, а брокерская заявка не сработала
	Reason string
}
