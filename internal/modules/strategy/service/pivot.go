package service

import (
	"fmt"
	"time"

	"fx_bot/internal/models"
	"fx_bot/internal/modules/config"
)

// Pivot — классические pivot-уровни по H/L/C предыдущего бара.
// Лонг: закрытие пересекло PP или S1 снизу вверх при растущем моменте,
// шорт зеркально через PP/R1. Тейк — до следующего уровня,
// стоп — ATR * множитель.
type Pivot struct {
	cfg config.PivotConfig
}

func NewPivot(cfg *config.Config) *Pivot {
	return &Pivot{cfg: cfg.Pivot}
}

func (p *Pivot) Name() models.StrategyType { return models.StrategyPivot }

type pivotLevels struct {
	PP, R1, S1, R2, S2 float64
}

func pivotsOf(c models.Candle) pivotLevels {
	pp := (c.High + c.Low + c.Close) / 3
	return pivotLevels{
		PP: pp,
		R1: 2*pp - c.Low,
		S1: 2*pp - c.High,
		R2: pp + (c.High - c.Low),
		S2: pp - (c.High - c.Low),
	}
}

func (p *Pivot) Evaluate(sc models.SymbolContext) (models.Signal, bool) {
	h := sc.History
	// нужен бар для уровней и два закрытия для факта пересечения
	if len(h) < 3 || sc.ATR <= 0 {
		return models.Signal{}, false
	}

	lv := pivotsOf(h[len(h)-3])
	prev := h[len(h)-2].Close
	last := sc.LastClose()
	if prev <= 0 || last <= 0 {
		return models.Signal{}, false
	}

	crossedUp := func(level float64) bool { return prev <= level && last > level }
	crossedDown := func(level float64) bool { return prev >= level && last < level }

	momentumUp := last > prev
	momentumDown := last < prev

	stopDist := p.cfg.SLMult * sc.ATR

	// лонг: пересечение PP вверх целится в R1, пересечение S1 — в PP
	var side models.Side
	var takeDist float64
	var level string

	switch {
	case crossedUp(lv.PP) && momentumUp:
		side, takeDist, level = models.SideBuy, lv.R1-last, "PP"
	case crossedUp(lv.S1) && momentumUp:
		side, takeDist, level = models.SideBuy, lv.PP-last, "S1"
	case crossedDown(lv.PP) && momentumDown:
		side, takeDist, level = models.SideSell, last-lv.S1, "PP"
	case crossedDown(lv.R1) && momentumDown:
		side, takeDist, level = models.SideSell, last-lv.PP, "R1"
	default:
		return models.Signal{}, false
	}

	// цена уже за целевым уровнем — сигнал без смысла
	if takeDist <= 0 {
		return models.Signal{}, false
	}

	return models.Signal{
		Symbol:   sc.Symbol,
		Side:     side,
		Price:    last,
		StopDist: stopDist,
		TakeDist: takeDist,
		Strategy: models.StrategyPivot,
		At:       time.Now(),
		Reason:   fmt.Sprintf("pivot cross %s @ %.5f", level, last),
	}, true
}
