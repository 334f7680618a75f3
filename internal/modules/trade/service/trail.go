package service

import (
	"fmt"

	"fx_bot/internal/helper"
	"fx_bot/internal/models"
	"fx_bot/internal/modules/config"
)

// decideTrail — чистое решение по стопу одной позиции на текущем тике.
// Стоп двигается только в сторону уменьшения риска, никогда обратно.
//
// Формула фиксации: первый перенос — безубыток + be_offset_pips, дальше
// стоп запирает lock_fraction от набранного профита
// (long: entry + lock_fraction*(price-entry)). Сдвиги меньше step_pips
// не отправляем брокеру.
func decideTrail(
	p models.Position,
	bid, ask float64,
	meta models.SymbolMeta,
	cfg config.TrailingConfig,
) models.TrailDecision {

	if p.State != models.PosOpen || p.Entry <= 0 {
		return models.TrailDecision{}
	}

	pipSize := meta.PipSize
	if pipSize <= 0 {
		pipSize = meta.Point
	}
	if pipSize <= 0 {
		return models.TrailDecision{}
	}

	// цена закрытия позиции: long закрывается по bid, short по ask
	price := bid
	if p.Side == models.SideSell {
		price = ask
	}
	if price <= 0 {
		return models.TrailDecision{}
	}

	// защитный выход: цена уже за SL/TP, а брокерская заявка не сработала
	// (гэп, отставший мост) — закрываем сами
	if p.Side == models.SideBuy {
		if p.SL > 0 && price <= p.SL {
			return models.TrailDecision{Close: true, Reason: string(models.CloseStopLoss)}
		}
		if p.TP > 0 && price >= p.TP {
			return models.TrailDecision{Close: true, Reason: string(models.CloseTakeProfit)}
		}
	} else {
		if p.SL > 0 && price >= p.SL {
			return models.TrailDecision{Close: true, Reason: string(models.CloseStopLoss)}
		}
		if p.TP > 0 && price <= p.TP {
			return models.TrailDecision{Close: true, Reason: string(models.CloseTakeProfit)}
		}
	}

	var profitPips float64
	if p.Side == models.SideBuy {
		profitPips = (price - p.Entry) / pipSize
	} else {
		profitPips = (p.Entry - price) / pipSize
	}
	if profitPips < cfg.ProfitThresholdPips {
		return models.TrailDecision{}
	}

	var target float64
	reason := ""
	if p.Side == models.SideBuy {
		if p.SL < p.Entry {
			target = p.Entry + cfg.BEOffsetPips*pipSize
			reason = "BE"
		} else {
			target = p.Entry + cfg.LockFraction*(price-p.Entry)
			reason = fmt.Sprintf("lock %.0f%%", cfg.LockFraction*100)
		}
		target = helper.RoundDownToTick(target, meta.Point)
		if target >= price {
			return models.TrailDecision{}
		}
		if target-p.SL < cfg.StepPips*pipSize {
			return models.TrailDecision{}
		}
	} else {
		if p.SL <= 0 || p.SL > p.Entry {
			target = p.Entry - cfg.BEOffsetPips*pipSize
			reason = "BE"
		} else {
			target = p.Entry - cfg.LockFraction*(p.Entry-price)
			reason = fmt.Sprintf("lock %.0f%%", cfg.LockFraction*100)
		}
		target = helper.RoundUpToTick(target, meta.Point)
		if target <= price {
			return models.TrailDecision{}
		}
		if p.SL-target < cfg.StepPips*pipSize {
			return models.TrailDecision{}
		}
	}

	return models.TrailDecision{MoveSL: true, NewSL: target, Reason: reason}
}
