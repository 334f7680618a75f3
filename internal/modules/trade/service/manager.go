package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"fx_bot/internal/models"
	"fx_bot/internal/modules/config"
	"fx_bot/pkg/logger"

	"github.com/pkg/errors"
)

// Gateway — брокерские вызовы, которые нужны трейд-менеджеру.
// За интерфейсом, чтобы в тестах жил детерминированный фейк.
type Gateway interface {
	OpenOrder(ctx context.Context, p models.Proposal) (ticket string, price float64, err error)
	ModifyStop(ctx context.Context, ticket string, newSL float64) error
	ClosePosition(ctx context.Context, ticket string) (price, profit float64, err error)
}

// RiskSink — обратная связь в риск-менеджер: реализованный P&L закрытий.
type RiskSink interface {
	ApplyRealized(profit float64)
}

// Journal — журнал закрытых сделок. Может быть nil (без БД).
type Journal interface {
	RecordClose(ctx context.Context, cp models.ClosedPosition) error
}

type Notifier interface {
	Sendf(format string, args ...any)
}

// Manager владеет набором открытых позиций. Все мутации — внутри цикла,
// конкурентно сюда никто не пишет; mutex защищает только читателей
// (/positions из телеграма).
type Manager struct {
	cfg     *config.Config
	gw      Gateway
	risk    RiskSink
	journal Journal
	n       Notifier

	mu   sync.RWMutex
	open map[models.PosKey]*models.Position
}

func NewManager(cfg *config.Config, gw Gateway, risk RiskSink, journal Journal, n Notifier) *Manager {
	return &Manager{
		cfg:     cfg,
		gw:      gw,
		risk:    risk,
		journal: journal,
		n:       n,
		open:    make(map[models.PosKey]*models.Position),
	}
}

// Open проводит предложение через шлюз.
//
//	PENDING_OPEN --(ack)--> OPEN
//	PENDING_OPEN --(reject)--> FAILED (позиция не сохраняется)
//
// Отказ брокера не ретраим — типизированный failure уходит вызывающему.
func (m *Manager) Open(ctx context.Context, p models.Proposal) (*models.Position, error) {
	key := models.PosKey{Symbol: p.Symbol, Side: p.Side}

	m.mu.RLock()
	_, exists := m.open[key]
	m.mu.RUnlock()
	if exists {
		// сюда не должны попадать: риск-менеджер отсекает дубли раньше
		logger.Error("[TRADE] assertion: duplicate open attempt %s %s, ignored", p.Symbol, p.Side)
		return nil, nil
	}

	pos := &models.Position{
		Symbol:   p.Symbol,
		Side:     p.Side,
		Lot:      p.Lot,
		Entry:    p.Entry,
		SL:       p.SL,
		TP:       p.TP,
		Risk:     p.Risk,
		Strategy: p.Strategy,
		State:    models.PosPendingOpen,
	}

	ticket, price, err := m.gw.OpenOrder(ctx, p)
	if err != nil {
		pos.State = models.PosFailed
		var fail *models.OpenFailure
		if errors.As(err, &fail) {
			logger.Warn("[TRADE] %s %s open failed: %s", p.Symbol, p.Side, fail.Reason)
			if m.n != nil {
				m.n.Sendf("❗️ [%s] Вход %s отклонён брокером: %s", p.Symbol, p.Side, fail.Reason)
			}
			return nil, fail
		}
		logger.Warn("[TRADE] %s %s open failed: %v", p.Symbol, p.Side, err)
		return nil, err
	}

	pos.Ticket = ticket
	pos.State = models.PosOpen
	pos.OpenedAt = time.Now()
	if price > 0 {
		pos.Entry = price // фактическое исполнение
	}

	m.mu.Lock()
	m.open[key] = pos
	m.mu.Unlock()

	logger.Info("[TRADE] opened %s %s lot=%.2f @ %.5f SL=%.5f TP=%.5f risk=%.2f (#%s)",
		pos.Symbol, pos.Side, pos.Lot, pos.Entry, pos.SL, pos.TP, pos.Risk, pos.Ticket)
	if m.n != nil {
		m.n.Sendf("✅ [%s] OPEN %-4s lot=%.2f @ %.5f | SL=%.5f TP=%.5f | risk=%.2f | %s (#%s)",
			pos.Symbol, pos.Side, pos.Lot, pos.Entry, pos.SL, pos.TP, pos.Risk, pos.Strategy, pos.Ticket)
	}
	return pos, nil
}

// Tick — трейлинг одной позиции на текущей котировке.
func (m *Manager) Tick(ctx context.Context, key models.PosKey, bid, ask float64, meta models.SymbolMeta) models.TrailDecision {
	m.mu.RLock()
	pos, ok := m.open[key]
	m.mu.RUnlock()
	if !ok {
		return models.TrailDecision{}
	}

	dec := decideTrail(*pos, bid, ask, meta, m.cfg.Trailing)

	// защитное закрытие важнее любых переносов стопа: пока брокер
	// отбивает ModifyStop, цена могла уже уйти за SL/TP
	if dec.Close {
		reason := models.CloseReason(dec.Reason)
		if _, err := m.Close(ctx, key, reason); err != nil {
			logger.Warn("[TRADE] %s %s defensive close failed: %v", pos.Symbol, pos.Side, err)
		}
		return dec
	}

	// цена закрытия позиции: long по bid, short по ask
	price := bid
	if pos.Side == models.SideSell {
		price = ask
	}
	floating := pos.ProfitAt(price, meta)

	// дотаскиваем стоп, который брокер не принял в прошлый раз
	if pos.ModifyRetries > 0 && pos.PendingSL > 0 && improves(pos, pos.PendingSL) {
		if m.applyStop(ctx, pos, pos.PendingSL, "retry", floating) {
			return models.TrailDecision{MoveSL: true, NewSL: pos.SL, Reason: "retry"}
		}
		return models.TrailDecision{}
	}

	if dec.MoveSL {
		m.applyStop(ctx, pos, dec.NewSL, dec.Reason, floating)
	}
	return dec
}

func improves(p *models.Position, sl float64) bool {
	if p.Side == models.SideBuy {
		return sl > p.SL
	}
	return sl < p.SL
}

// applyStop — перенос стопа через шлюз. Неуспех не фатален: действующий
// стоп на брокере остаётся, кандидата ретраим на следующем цикле.
func (m *Manager) applyStop(ctx context.Context, pos *models.Position, newSL float64, why string, floating float64) bool {
	if err := m.gw.ModifyStop(ctx, pos.Ticket, newSL); err != nil {
		pos.ModifyRetries++
		pos.PendingSL = newSL
		if pos.ModifyRetries > 1 {
			logger.Warn("[TRADE] %s %s modify SL -> %.5f failed %d times: %v",
				pos.Symbol, pos.Side, newSL, pos.ModifyRetries, err)
		} else {
			logger.Info("[TRADE] %s %s modify SL -> %.5f failed, will retry: %v",
				pos.Symbol, pos.Side, newSL, err)
		}
		return false
	}

	pos.SL = newSL
	pos.ModifyRetries = 0
	pos.PendingSL = 0
	logger.Info("[TRADE] %s %s SL -> %.5f (%s), floating=%.2f", pos.Symbol, pos.Side, newSL, why, floating)
	if m.n != nil {
		m.n.Sendf("🛡 [%s] SL обновлён (%s) -> %.5f | плавающий P&L %.2f | %s",
			pos.Symbol, pos.Side, newSL, floating, why)
	}
	return true
}

// Close закрывает позицию, убирает её из набора и отчитывается
// риск-менеджеру и журналу.
func (m *Manager) Close(ctx context.Context, key models.PosKey, reason models.CloseReason) (*models.ClosedPosition, error) {
	m.mu.RLock()
	pos, ok := m.open[key]
	m.mu.RUnlock()
	if !ok {
		return nil, errors.Errorf("close: no open position %s %s", key.Symbol, key.Side)
	}

	price, profit, err := m.gw.ClosePosition(ctx, pos.Ticket)
	if err != nil {
		// позиция остаётся в наборе, попробуем на следующем цикле
		return nil, errors.Wrapf(err, "close %s %s", key.Symbol, key.Side)
	}

	m.mu.Lock()
	delete(m.open, key)
	m.mu.Unlock()

	pos.State = models.PosClosed
	cp := models.ClosedPosition{
		Position:   *pos,
		ClosePrice: price,
		Profit:     profit,
		Reason:     reason,
		ClosedAt:   time.Now(),
	}

	m.risk.ApplyRealized(profit)
	if m.journal != nil {
		if err := m.journal.RecordClose(ctx, cp); err != nil {
			logger.Warn("[TRADE] journal record %s: %v", pos.Ticket, err)
		}
	}

	logger.Info("[TRADE] closed %s %s @ %.5f profit=%.2f reason=%s (#%s)",
		pos.Symbol, pos.Side, price, profit, reason, pos.Ticket)
	if m.n != nil {
		m.n.Sendf("📉 [%s] CLOSE %s @ %.5f | P&L=%.2f | %s (#%s)",
			pos.Symbol, pos.Side, price, profit, reason, pos.Ticket)
	}
	return &cp, nil
}

// CloseAll — принудительная ликвидация (дневной лосс-лимит).
func (m *Manager) CloseAll(ctx context.Context, reason models.CloseReason) {
	for _, key := range m.Keys() {
		if _, err := m.Close(ctx, key, reason); err != nil {
			logger.Warn("[TRADE] force close %s %s: %v", key.Symbol, key.Side, err)
		}
	}
}

// Keys — ключи открытых позиций в детерминированном порядке.
func (m *Manager) Keys() []models.PosKey {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]models.PosKey, 0, len(m.open))
	for k := range m.open {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Symbol != keys[j].Symbol {
			return keys[i].Symbol < keys[j].Symbol
		}
		return keys[i].Side < keys[j].Side
	})
	return keys
}

// Positions — копии открытых позиций (для /positions и health).
func (m *Manager) Positions() []models.Position {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Position, 0, len(m.open))
	for _, p := range m.open {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticket < out[j].Ticket })
	return out
}

// OpenSet — снапшот для риск-проверок (дубль, суммарный риск).
func (m *Manager) OpenSet() map[models.PosKey]models.Position {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[models.PosKey]models.Position, len(m.open))
	for k, p := range m.open {
		out[k] = *p
	}
	return out
}
