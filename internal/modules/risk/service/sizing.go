package service

import (
	"fmt"
	"math"

	"fx_bot/internal/helper"
	"fx_bot/internal/models"
)

type sizedLot struct {
	Lot     float64
	Risk    float64 // эффективный риск по стопу после clamp/округления
	SLPips  float64
	Clamped bool // лот урезан сверху относительно целевого риска
}

func pip(meta models.SymbolMeta) float64 {
	if meta.PipSize > 0 {
		return meta.PipSize
	}
	return meta.Point
}

// lotFor — размер позиции от целевого риска и дистанции до стопа:
//
//	riskAmount = equity * risk_per_trade
//	pipValue   = tickValue * (pip/point)      // на 1.0 лот
//	lot        = riskAmount / (slPips * pipValue)
//
// затем потолки (маржа через плечо, лимит брокера, max_position_lot),
// округление к шагу лота и пол по minLot.
func (m *Manager) lotFor(
	sig models.Signal,
	acct models.AccountState,
	meta models.SymbolMeta,
	entry float64,
) (sizedLot, *models.Rejection) {

	pipSize := pip(meta)
	pipValue := meta.PipValue()
	if pipSize <= 0 || pipValue <= 0 || entry <= 0 || acct.Equity <= 0 {
		return sizedLot{}, &models.Rejection{
			Reason: models.RejectLotBelowMin,
			Detail: "bad symbol meta or account state",
		}
	}

	slPips := helper.Pips(sig.StopDist, pipSize)
	// защита от крошечного SL: иначе формула раздует лот
	if slPips < m.cfg.Risk.MinSLPips {
		slPips = m.cfg.Risk.MinSLPips
	}
	if slPips <= 0 {
		return sizedLot{}, &models.Rejection{
			Reason: models.RejectLotBelowMin,
			Detail: "zero stop distance",
		}
	}

	riskAmount := acct.Equity * m.cfg.Risk.RiskPerTrade
	rawLot := riskAmount / (slPips * pipValue)

	// потолок по марже: notional не больше equity * max_leverage
	upper := math.Inf(1)
	if m.cfg.Risk.MaxLeverage > 0 && meta.ContractSize > 0 {
		upper = acct.Equity * m.cfg.Risk.MaxLeverage / (meta.ContractSize * entry)
	}
	if meta.MaxLot > 0 && meta.MaxLot < upper {
		upper = meta.MaxLot
	}
	if m.cfg.Risk.MaxPositionLot > 0 && m.cfg.Risk.MaxPositionLot < upper {
		upper = m.cfg.Risk.MaxPositionLot
	}

	lot := rawLot
	clamped := false
	if lot > upper {
		lot = upper
		clamped = true
	}

	lot = helper.RoundLotToStep(lot, meta.LotStep)

	if lot < meta.MinLot || lot <= 0 {
		return sizedLot{}, &models.Rejection{
			Reason: models.RejectLotBelowMin,
			Detail: fmt.Sprintf("lot %.4f < min %.4f", lot, meta.MinLot),
		}
	}

	if clamped && m.cfg.Risk.StrictSizing {
		return sizedLot{}, &models.Rejection{
			Reason: models.RejectLotClamped,
			Detail: fmt.Sprintf("raw %.2f -> %.2f", rawLot, lot),
		}
	}

	return sizedLot{
		Lot:     lot,
		Risk:    slPips * pipValue * lot,
		SLPips:  slPips,
		Clamped: clamped,
	}, nil
}

func formatRisk(risk, remaining float64) string {
	return fmt.Sprintf("risk %.2f > remaining budget %.2f", risk, remaining)
}
