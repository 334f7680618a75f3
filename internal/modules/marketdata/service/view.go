package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fx_bot/internal/models"
	"fx_bot/internal/modules/config"
	gw "fx_bot/internal/modules/gateway/service"
	"fx_bot/pkg/logger"
)

// MarketSource — то, что view нужно от шлюза.
type MarketSource interface {
	SymbolMeta(ctx context.Context, symbol string) (models.SymbolMeta, error)
	Candles(ctx context.Context, symbol, timeframe string, limit int) ([]models.Candle, error)
	StreamQuotes(ctx context.Context, symbols []string) <-chan gw.Quote
}

// View — последний известный снапшот рынка по всем торгуемым символам.
// Пишет сюда только сам view (прогрев, WS-котировки, обновление свечей),
// остальные компоненты получают копии.
type View struct {
	cfg *config.Config
	src MarketSource

	mu  sync.RWMutex
	ctx map[string]*models.SymbolContext
}

func NewView(cfg *config.Config, src MarketSource) *View {
	return &View{
		cfg: cfg,
		src: src,
		ctx: make(map[string]*models.SymbolContext),
	}
}

// Warmup — метаданные и история по каждому символу из конфига.
// Без прогретого символа не стартуем: по нему нечего решать.
func (v *View) Warmup(ctx context.Context) error {
	for _, sym := range v.cfg.Symbols {
		meta, err := v.src.SymbolMeta(ctx, sym)
		if err != nil {
			return fmt.Errorf("warmup %s: %w", sym, err)
		}

		strategies := make([]models.StrategyType, 0, 2)
		for _, s := range v.cfg.StrategiesFor(sym) {
			strategies = append(strategies, models.StrategyType(s))
		}

		sc := &models.SymbolContext{
			Symbol:     sym,
			Meta:       meta,
			Strategies: strategies,
		}
		if err := v.loadHistory(ctx, sc); err != nil {
			return fmt.Errorf("warmup %s: %w", sym, err)
		}

		v.mu.Lock()
		v.ctx[sym] = sc
		v.mu.Unlock()

		logger.Info("[MARKET] %s warmed up: %d bars, ATR=%.6f", sym, len(sc.History), sc.ATR)
	}
	return nil
}

func (v *View) loadHistory(ctx context.Context, sc *models.SymbolContext) error {
	bars, err := v.src.Candles(ctx, sc.Symbol, v.cfg.Timeframe, v.cfg.HistoryBars)
	if err != nil {
		return err
	}
	sc.History = bars
	sc.ATR = ATR(bars, v.cfg.ATRPeriod)
	return nil
}

// RefreshCandles — подтянуть свежие закрытые бары перед циклом.
// Ошибка не фатальна: символ просто останется со старой историей
// и отсеется по staleness.
func (v *View) RefreshCandles(ctx context.Context, symbol string) {
	v.mu.RLock()
	sc, ok := v.ctx[symbol]
	v.mu.RUnlock()
	if !ok {
		return
	}

	bars, err := v.src.Candles(ctx, symbol, v.cfg.Timeframe, v.cfg.HistoryBars)
	if err != nil {
		logger.Warn("[MARKET] %s refresh candles: %v", symbol, err)
		return
	}

	v.mu.Lock()
	sc.History = bars
	sc.ATR = ATR(bars, v.cfg.ATRPeriod)
	v.mu.Unlock()
}

// Start — поток котировок в фоне на всё время жизни процесса.
func (v *View) Start(ctx context.Context) {
	quotes := v.src.StreamQuotes(ctx, v.cfg.Symbols)
	go func() {
		for q := range quotes {
			v.ApplyQuote(q)
		}
	}()
}

func (v *View) ApplyQuote(q gw.Quote) {
	v.mu.Lock()
	defer v.mu.Unlock()

	sc, ok := v.ctx[q.Symbol]
	if !ok {
		return
	}
	if q.Bid <= 0 || q.Ask <= 0 {
		return // мусор со шлюза
	}
	sc.Bid = q.Bid
	sc.Ask = q.Ask
	sc.UpdatedAt = q.At
}

// Snapshot — копия контекста символа. Fresh=false, если котировка старше
// max_quote_age: такой символ в этом цикле пропускается.
func (v *View) Snapshot(symbol string, now time.Time) (models.SymbolContext, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	sc, ok := v.ctx[symbol]
	if !ok {
		return models.SymbolContext{}, false
	}

	out := *sc
	out.History = make([]models.Candle, len(sc.History))
	copy(out.History, sc.History)

	if out.StaleAt(now, v.cfg.MaxQuoteAge) {
		return out, false
	}
	return out, true
}

// LastQuote — для трейлинга открытых позиций: там не нужна история,
// и копировать весь снапшот на каждый тик незачем.
func (v *View) LastQuote(symbol string) (bid, ask float64, at time.Time, ok bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	sc, found := v.ctx[symbol]
	if !found || sc.Bid <= 0 {
		return 0, 0, time.Time{}, false
	}
	return sc.Bid, sc.Ask, sc.UpdatedAt, true
}

// Meta — брокерские параметры символа из прогрева.
func (v *View) Meta(symbol string) (models.SymbolMeta, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	sc, found := v.ctx[symbol]
	if !found {
		return models.SymbolMeta{}, false
	}
	return sc.Meta, true
}
