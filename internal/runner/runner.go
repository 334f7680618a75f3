package runner

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"

	"fx_bot/internal/models"
	"fx_bot/internal/modules/config"
	gw "fx_bot/internal/modules/gateway/service"
	health "fx_bot/internal/modules/health/service"
	journal "fx_bot/internal/modules/journal/service"
	md "fx_bot/internal/modules/marketdata/service"
	risk "fx_bot/internal/modules/risk/service"
	strategy "fx_bot/internal/modules/strategy/service"
	trade "fx_bot/internal/modules/trade/service"
	"fx_bot/internal/notify"
	"fx_bot/pkg/logger"
)

// Runner — однопоточный торговый цикл. Вся торговая логика дергается
// только отсюда, по тику таймера, в фиксированном порядке:
// счёт -> сигналы -> трейлинг -> ликвидация по лосс-лимиту.
type Runner struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg     *config.Config
	view    *md.View
	engines map[models.StrategyType]strategy.Engine
	risk    *risk.Manager
	trades  *trade.Manager
	client  *gw.Client
	journal *journal.Journal
	state   *health.State
	n       notify.Notifier

	liquidated bool // лосс-лимитная ликвидация уже проведена сегодня
}

func New(
	cfg *config.Config,
	view *md.View,
	engines map[models.StrategyType]strategy.Engine,
	rm *risk.Manager,
	tm *trade.Manager,
	client *gw.Client,
	j *journal.Journal,
	state *health.State,
	n notify.Notifier,
) *Runner {
	return &Runner{
		cfg:     cfg,
		view:    view,
		engines: engines,
		risk:    rm,
		trades:  tm,
		client:  client,
		journal: j,
		state:   state,
		n:       n,
	}
}

// Start — прогрев и запуск цикла. Блокирует только на прогреве,
// сам цикл живёт в горутине до cancel.
func (r *Runner) Start(parent context.Context) error {
	r.ctx, r.cancel = context.WithCancel(parent)

	if err := r.journal.Migrate(r.ctx); err != nil {
		return err
	}

	now := time.Now()
	realized, err := r.journal.RealizedToday(r.ctx, now, r.risk.Location())
	if err != nil {
		return err
	}
	r.risk.Seed(realized, now)

	if err := r.view.Warmup(r.ctx); err != nil {
		return err
	}
	r.view.Start(r.ctx)
	r.state.SetWSConnected(true)
	r.state.SetReady(true)

	logger.Info("[RUNNER] ▶️ старт, %d символов, цикл %s", len(r.cfg.Symbols), r.cfg.CycleInterval)
	r.n.Sendf("🤖 Бот запущен: %d символов, цикл %s, P&L за сегодня %.2f",
		len(r.cfg.Symbols), r.cfg.CycleInterval, realized)

	go r.loop(r.ctx)
	return nil
}

func (r *Runner) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
}

func (r *Runner) loop(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.CycleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RunCycle(ctx, time.Now())
		}
	}
}

// RunCycle — один проход. Публичный, чтобы цикл можно было гонять
// детерминированно без таймера.
func (r *Runner) RunCycle(ctx context.Context, now time.Time) {
	span := opentracing.StartSpan("cycle")
	defer span.Finish()
	ctx = opentracing.ContextWithSpan(ctx, span)

	if r.risk.BeginCycle(now) {
		r.liquidated = false
	}

	acct, err := r.client.AccountState(ctx)
	haveAcct := err == nil
	if !haveAcct {
		// без счёта входы не считаем, но трейлинг открытых продолжаем
		logger.Warn("[RUNNER] account state unavailable, skip entries: %v", err)
	}

	if haveAcct {
		child := opentracing.StartSpan("evaluate", opentracing.ChildOf(span.Context()))
		r.evaluateSignals(opentracing.ContextWithSpan(ctx, child), acct, now)
		child.Finish()
	}

	child := opentracing.StartSpan("trail", opentracing.ChildOf(span.Context()))
	r.trailOpen(opentracing.ContextWithSpan(ctx, child), now)
	child.Finish()

	if r.cfg.Risk.CloseOnLossLimit && r.risk.LossLimitHit() && !r.liquidated {
		logger.Warn("[RUNNER] loss limit active, liquidating open positions")
		r.trades.CloseAll(ctx, models.CloseLossLimit)
		r.liquidated = true
	}

	open := r.trades.Positions()
	r.state.TouchCycle(now)
	r.state.SetOpenPositions(len(open))
	r.state.SetDailyPnL(r.risk.DailyPnL())
	r.state.SetBreakerActive(r.risk.Halted())
	span.SetTag("open_positions", len(open))
	span.SetTag("daily_pnl", r.risk.DailyPnL())
}

// evaluateSignals — обход символов в порядке конфига. Несвежая котировка
// выводит символ из цикла целиком.
func (r *Runner) evaluateSignals(ctx context.Context, acct models.AccountState, now time.Time) {
	for _, symbol := range r.cfg.Symbols {
		r.view.RefreshCandles(ctx, symbol)

		snap, fresh := r.view.Snapshot(symbol, now)
		if !fresh {
			logger.Info("[RUNNER] %s: stale quote, skipped", symbol)
			continue
		}
		if snap.Meta.Disabled {
			continue
		}

		for _, st := range snap.Strategies {
			eng, ok := r.engines[st]
			if !ok {
				continue
			}
			sig, ok := eng.Evaluate(snap)
			if !ok {
				continue
			}
			logger.Info("[RUNNER] %s: %s signal %s @ %.5f (%s)",
				symbol, sig.Strategy, sig.Side, sig.Price, sig.Reason)

			prop, rej := r.risk.Evaluate(sig, acct, snap.Meta, snap.Bid, snap.Ask, r.trades.OpenSet(), now)
			if rej != nil {
				continue
			}
			if _, err := r.trades.Open(ctx, prop); err != nil {
				logger.Warn("[RUNNER] %s: open failed: %v", symbol, err)
			}
		}
	}
}

// trailOpen — трейлинг всех открытых позиций; истории тут не нужно,
// достаточно последней котировки и меты символа.
func (r *Runner) trailOpen(ctx context.Context, now time.Time) {
	for _, key := range r.trades.Keys() {
		bid, ask, at, ok := r.view.LastQuote(key.Symbol)
		if !ok {
			continue
		}
		if r.cfg.MaxQuoteAge > 0 && now.Sub(at) > r.cfg.MaxQuoteAge {
			continue
		}
		meta, ok := r.view.Meta(key.Symbol)
		if !ok {
			continue
		}
		r.trades.Tick(ctx, key, bid, ask, meta)
	}
}
