package service

import (
	"sync"
	"time"

	"fx_bot/internal/helper"
	"fx_bot/internal/models"
	"fx_bot/internal/modules/config"
	"fx_bot/pkg/logger"
)

type Notifier interface {
	Sendf(format string, args ...any)
}

// Manager превращает сигнал в ограниченное по риску торговое предложение
// и ведёт дневной учёт реализованного P&L (circuit breaker).
//
// Дневной счётчик — его собственное состояние: пишется только через
// ApplyRealized (уведомления trade-менеджера о закрытиях) и Seed
// (прогрев из журнала на старте), читается все остальные.
type Manager struct {
	cfg     *config.Config
	session helper.Session
	n       Notifier

	mu       sync.Mutex
	day      time.Time // начало текущего торгового дня
	dailyPnL float64   // реализованный P&L за день

	lossTripped   bool
	profitTripped bool
}

func NewManager(cfg *config.Config, n Notifier) *Manager {
	loc, err := time.LoadLocation(cfg.Session.Timezone)
	if err != nil {
		logger.Warn("[RISK] bad session timezone %q: %v, using UTC", cfg.Session.Timezone, err)
		loc = time.UTC
	}
	return &Manager{
		cfg: cfg,
		n:   n,
		session: helper.Session{
			Location:  loc,
			OpenHour:  cfg.Session.OpenHour,
			CloseHour: cfg.Session.CloseHour,
		},
	}
}

// Location — зона торговой сессии (границы дня считаются в ней).
func (m *Manager) Location() *time.Location {
	return m.session.Location
}

// BeginCycle — проверка границы дня. Новый день снимает circuit breaker.
// Возвращает true, если произошёл сброс.
func (m *Manager) BeginCycle(now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	day := helper.DayOf(now, m.session.Location)
	if !m.day.IsZero() && day.Equal(m.day) {
		return false
	}

	wasTripped := m.lossTripped || m.profitTripped
	m.day = day
	m.dailyPnL = 0
	m.lossTripped = false
	m.profitTripped = false

	if wasTripped {
		logger.Info("[RISK] new trading day, circuit breaker reset")
		if m.n != nil {
			m.n.Sendf("🔄 Новый торговый день: дневной стоп снят, счётчик P&L обнулён")
		}
	} else {
		logger.Info("[RISK] new trading day, daily P&L counter reset")
	}
	return true
}

// Seed — прогрев счётчика из журнала (рестарт посреди дня не должен
// развязывать дневной лимит).
func (m *Manager) Seed(realized float64, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.day = helper.DayOf(now, m.session.Location)
	m.dailyPnL = realized
	m.checkBreakerLocked()
}

// ApplyRealized — уведомление о закрытой позиции.
func (m *Manager) ApplyRealized(profit float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.dailyPnL += profit
	m.checkBreakerLocked()
}

func (m *Manager) checkBreakerLocked() {
	if !m.lossTripped && m.dailyPnL <= m.cfg.Risk.DailyLoss {
		m.lossTripped = true
		logger.Warn("[RISK] daily loss limit hit: %.2f (limit %.2f)", m.dailyPnL, m.cfg.Risk.DailyLoss)
		if m.n != nil {
			m.n.Sendf("🚨 Дневной лосс-лимит: %.2f (лимит %.2f). Новые входы заблокированы до конца дня",
				m.dailyPnL, m.cfg.Risk.DailyLoss)
		}
	}
	if !m.profitTripped && m.dailyPnL >= m.cfg.Risk.DailyProfit {
		m.profitTripped = true
		logger.Info("[RISK] daily profit target hit: %.2f (target %.2f)", m.dailyPnL, m.cfg.Risk.DailyProfit)
		if m.n != nil {
			m.n.Sendf("🎯 Дневная цель по профиту: %.2f (цель %.2f). Новые входы до завтра не открываем",
				m.dailyPnL, m.cfg.Risk.DailyProfit)
		}
	}
}

func (m *Manager) DailyPnL() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dailyPnL
}

// LossLimitHit — true, пока действует дневной лосс-лимит.
// Трейд-менеджер по этому флагу (и config флагу) закрывает открытые позиции.
func (m *Manager) LossLimitHit() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lossTripped
}

// Halted — true, если какой-либо из дневных порогов сработал
// (новые входы закрыты до следующего дня).
func (m *Manager) Halted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lossTripped || m.profitTripped
}

// Evaluate — единственная точка одобрения входа.
// Либо предложение с посчитанным лотом, либо отказ с причиной.
func (m *Manager) Evaluate(
	sig models.Signal,
	acct models.AccountState,
	meta models.SymbolMeta,
	bid, ask float64,
	open map[models.PosKey]models.Position,
	now time.Time,
) (models.Proposal, *models.Rejection) {

	m.mu.Lock()
	dailyPnL := m.dailyPnL
	lossTripped := m.lossTripped
	profitTripped := m.profitTripped
	m.mu.Unlock()

	reject := func(reason models.RejectReason, detail string) (models.Proposal, *models.Rejection) {
		r := &models.Rejection{Reason: reason, Detail: detail}
		logger.Info("[RISK] %s %s rejected: %s", sig.Symbol, sig.Side, r)
		return models.Proposal{}, r
	}

	if !m.session.Open(now) {
		return reject(models.RejectMarketClosed, "")
	}
	if profitTripped {
		return reject(models.RejectDailyProfit, "")
	}
	if lossTripped {
		return reject(models.RejectDailyLoss, "")
	}
	if acct.FreeMarginRatio() < m.cfg.Risk.MinFreeMarginRatio {
		return reject(models.RejectLowFreeMargin, "")
	}

	// дубль по (symbol, side) — инвариант, а не ошибка: молча no-op с логом
	if _, exists := open[models.PosKey{Symbol: sig.Symbol, Side: sig.Side}]; exists {
		return reject(models.RejectPositionExists, "")
	}

	entry := ask
	if sig.Side == models.SideSell {
		entry = bid
	}
	if entry <= 0 {
		entry = sig.Price
	}

	sz, rej := m.lotFor(sig, acct, meta, entry)
	if rej != nil {
		logger.Info("[RISK] %s %s rejected: %s", sig.Symbol, sig.Side, rej)
		return models.Proposal{}, rej
	}

	// остаток дневного бюджета с учётом риска уже открытых позиций:
	// даже если всё открытое выбьет по стопу, лимит не пробиваем
	openRisk := 0.0
	for _, p := range open {
		openRisk += p.Risk
	}
	remaining := (dailyPnL - m.cfg.Risk.DailyLoss) - openRisk
	if sz.Risk > remaining {
		return reject(models.RejectRiskBudget,
			formatRisk(sz.Risk, remaining))
	}

	slDist := sz.SLPips * pip(meta)
	var sl, tp float64
	if sig.Side == models.SideBuy {
		sl = helper.RoundDownToTick(entry-slDist, meta.Point)
		tp = helper.RoundDownToTick(entry+sig.TakeDist, meta.Point)
	} else {
		sl = helper.RoundUpToTick(entry+slDist, meta.Point)
		tp = helper.RoundUpToTick(entry-sig.TakeDist, meta.Point)
	}

	return models.Proposal{
		Symbol:   sig.Symbol,
		Side:     sig.Side,
		Lot:      sz.Lot,
		Entry:    entry,
		SL:       sl,
		TP:       tp,
		Risk:     sz.Risk,
		Strategy: sig.Strategy,
	}, nil
}
