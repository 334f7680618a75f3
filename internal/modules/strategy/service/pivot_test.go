package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fx_bot/internal/models"
	"fx_bot/internal/modules/config"
)

func pivotConfig() *config.Config {
	return &config.Config{
		Pivot: config.PivotConfig{SLMult: 2.5},
	}
}

// бар, от которого считаются уровни: PP=1.1, R1=1.2, S1=1.0
func levelBar() models.Candle {
	return models.Candle{High: 1.2, Low: 1.0, Close: 1.1}
}

func pivotCtx(prevClose, lastClose float64) models.SymbolContext {
	return models.SymbolContext{
		Symbol: "EURUSD",
		ATR:    0.01,
		History: []models.Candle{
			levelBar(),
			{Close: prevClose},
			{Close: lastClose},
		},
	}
}

func TestPivotCrossUpPP(t *testing.T) {
	p := NewPivot(pivotConfig())

	sig, ok := p.Evaluate(pivotCtx(1.095, 1.105))
	require.True(t, ok)
	assert.Equal(t, models.SideBuy, sig.Side)
	assert.Equal(t, models.StrategyPivot, sig.Strategy)
	assert.InDelta(t, 0.025, sig.StopDist, 1e-9)     // 2.5 * ATR
	assert.InDelta(t, 1.2-1.105, sig.TakeDist, 1e-9) // цель R1
	assert.Equal(t, 1.105, sig.Price)
}

func TestPivotCrossDownPP(t *testing.T) {
	p := NewPivot(pivotConfig())

	sig, ok := p.Evaluate(pivotCtx(1.105, 1.095))
	require.True(t, ok)
	assert.Equal(t, models.SideSell, sig.Side)
	assert.InDelta(t, 1.095-1.0, sig.TakeDist, 1e-9) // цель S1
}

func TestPivotNoSignal(t *testing.T) {
	p := NewPivot(pivotConfig())

	// не было пересечения: оба закрытия между S1 и PP
	_, ok := p.Evaluate(pivotCtx(1.05, 1.06))
	assert.False(t, ok)

	// оба закрытия выше всех уровней
	_, ok = p.Evaluate(pivotCtx(1.25, 1.26))
	assert.False(t, ok)

	// цена перепрыгнула целевой уровень — сигнал без смысла
	_, ok = p.Evaluate(pivotCtx(1.05, 1.25))
	assert.False(t, ok)
}

func TestPivotRequiresHistoryAndATR(t *testing.T) {
	p := NewPivot(pivotConfig())

	sc := pivotCtx(1.095, 1.105)
	sc.History = sc.History[1:] // только два бара
	_, ok := p.Evaluate(sc)
	assert.False(t, ok)

	sc = pivotCtx(1.095, 1.105)
	sc.ATR = 0
	_, ok = p.Evaluate(sc)
	assert.False(t, ok)
}
