package service

import (
	"fmt"
	"time"

	"fx_bot/internal/models"
	"fx_bot/internal/modules/config"
	md "fx_bot/internal/modules/marketdata/service"
)

// Ribbon — лента SMA (по умолчанию 5/8/13). Лонг: средние строго
// по возрастанию скорости (быстрая выше медленной) с минимальным зазором
// и цена выше всех. Шорт зеркально. Равенство средних = нет сигнала.
type Ribbon struct {
	cfg config.RibbonConfig
}

func NewRibbon(cfg *config.Config) *Ribbon {
	return &Ribbon{cfg: cfg.Ribbon}
}

func (r *Ribbon) Name() models.StrategyType { return models.StrategyRibbon }

func (r *Ribbon) Evaluate(sc models.SymbolContext) (models.Signal, bool) {
	periods := r.cfg.Periods
	if len(periods) < 2 || sc.ATR <= 0 {
		return models.Signal{}, false
	}

	maxPeriod := 0
	for _, p := range periods {
		if p > maxPeriod {
			maxPeriod = p
		}
	}
	// истории меньше самого медленного периода — не ошибка, просто рано
	if len(sc.History) < maxPeriod {
		return models.Signal{}, false
	}

	smas := make([]float64, len(periods))
	for i, p := range periods {
		smas[i] = md.SMA(sc.History, p)
	}

	minSep := r.cfg.MinSepPoints * sc.Meta.Point

	ascending := true  // быстрая > ... > медленная
	descending := true // быстрая < ... < медленная
	for i := 0; i+1 < len(smas); i++ {
		if smas[i]-smas[i+1] <= minSep {
			ascending = false
		}
		if smas[i+1]-smas[i] <= minSep {
			descending = false
		}
	}

	last := sc.LastClose()
	if last <= 0 {
		return models.Signal{}, false
	}

	var side models.Side
	switch {
	case ascending && last > smas[0]:
		side = models.SideBuy
	case descending && last < smas[0]:
		side = models.SideSell
	default:
		// флэт или неоднозначный порядок
		return models.Signal{}, false
	}

	return models.Signal{
		Symbol:   sc.Symbol,
		Side:     side,
		Price:    last,
		StopDist: r.cfg.SLMult * sc.ATR,
		TakeDist: r.cfg.TPMult * sc.ATR,
		Strategy: models.StrategyRibbon,
		At:       time.Now(),
		Reason:   fmt.Sprintf("ribbon aligned %s @ %.5f", side, last),
	}, true
}
