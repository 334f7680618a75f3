package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fx_bot/internal/models"
	"fx_bot/internal/modules/config"
)

func trailConfig() config.TrailingConfig {
	return config.TrailingConfig{
		ProfitThresholdPips: 10,
		BEOffsetPips:        1,
		LockFraction:        0.5,
		StepPips:            5,
	}
}

func trailMeta() models.SymbolMeta {
	return models.SymbolMeta{Point: 0.00001, PipSize: 0.0001, TickValue: 1}
}

func longPos(sl float64) models.Position {
	return models.Position{
		Symbol: "EURUSD",
		Side:   models.SideBuy,
		Entry:  1.1000,
		SL:     sl,
		TP:     1.1100,
		State:  models.PosOpen,
	}
}

func shortPos(sl float64) models.Position {
	return models.Position{
		Symbol: "EURUSD",
		Side:   models.SideSell,
		Entry:  1.1000,
		SL:     sl,
		TP:     1.0900,
		State:  models.PosOpen,
	}
}

func TestTrailBreakEvenFirst(t *testing.T) {
	// профит 15 пипсов, стоп ещё под входом: первый перенос — BE + offset
	dec := decideTrail(longPos(1.0950), 1.1015, 1.1017, trailMeta(), trailConfig())
	require.True(t, dec.MoveSL)
	assert.InDelta(t, 1.1001, dec.NewSL, 1e-9)
	assert.Equal(t, "BE", dec.Reason)

	// шорт зеркально: закрытие по ask
	dec = decideTrail(shortPos(1.1050), 1.0983, 1.0985, trailMeta(), trailConfig())
	require.True(t, dec.MoveSL)
	assert.InDelta(t, 1.0999, dec.NewSL, 1e-9)
	assert.Equal(t, "BE", dec.Reason)
}

func TestTrailLockFraction(t *testing.T) {
	// стоп уже в безубытке: запираем половину набранного профита
	dec := decideTrail(longPos(1.1001), 1.1030, 1.1032, trailMeta(), trailConfig())
	require.True(t, dec.MoveSL)
	assert.InDelta(t, 1.1015, dec.NewSL, 1e-9)

	dec = decideTrail(shortPos(1.0999), 1.0978, 1.0980, trailMeta(), trailConfig())
	require.True(t, dec.MoveSL)
	assert.InDelta(t, 1.0990, dec.NewSL, 1e-9)
}

func TestTrailBelowProfitThreshold(t *testing.T) {
	dec := decideTrail(longPos(1.0950), 1.1005, 1.1007, trailMeta(), trailConfig())
	assert.False(t, dec.MoveSL)
	assert.False(t, dec.Close)
}

func TestTrailStepFilter(t *testing.T) {
	// кандидат двигает стоп меньше чем на step_pips — брокера не дёргаем
	dec := decideTrail(longPos(1.1001), 1.1011, 1.1013, trailMeta(), trailConfig())
	assert.False(t, dec.MoveSL)
}

func TestTrailNeverWidens(t *testing.T) {
	// стоп уже выше кандидата: откат цены не возвращает стоп назад
	dec := decideTrail(longPos(1.1020), 1.1025, 1.1027, trailMeta(), trailConfig())
	assert.False(t, dec.MoveSL)
	assert.False(t, dec.Close)
}

func TestTrailDefensiveClose(t *testing.T) {
	// цена уже за стопом, а брокерская заявка не сработала
	dec := decideTrail(longPos(1.0950), 1.0949, 1.0951, trailMeta(), trailConfig())
	require.True(t, dec.Close)
	assert.Equal(t, string(models.CloseStopLoss), dec.Reason)

	dec = decideTrail(longPos(1.0950), 1.1101, 1.1103, trailMeta(), trailConfig())
	require.True(t, dec.Close)
	assert.Equal(t, string(models.CloseTakeProfit), dec.Reason)

	dec = decideTrail(shortPos(1.1050), 1.1049, 1.1051, trailMeta(), trailConfig())
	require.True(t, dec.Close)
	assert.Equal(t, string(models.CloseStopLoss), dec.Reason)
}

func TestTrailIgnoresNonOpen(t *testing.T) {
	p := longPos(1.0950)
	p.State = models.PosPendingOpen
	dec := decideTrail(p, 1.1015, 1.1017, trailMeta(), trailConfig())
	assert.False(t, dec.MoveSL)
	assert.False(t, dec.Close)
}
