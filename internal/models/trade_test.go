package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProfitAt(t *testing.T) {
	meta := SymbolMeta{Point: 0.00001, PipSize: 0.0001, TickValue: 1} // pip_value = 10

	long := Position{Side: SideBuy, Entry: 1.1000, Lot: 0.3}
	// +30 пипсов на 0.3 лота: 30 * 10 * 0.3
	assert.InDelta(t, 90, long.ProfitAt(1.1030, meta), 1e-9)
	assert.InDelta(t, -60, long.ProfitAt(1.0980, meta), 1e-9)

	short := Position{Side: SideSell, Entry: 1.1000, Lot: 0.3}
	assert.InDelta(t, 90, short.ProfitAt(1.0970, meta), 1e-9)

	// кривая мета не роняет расчёт
	assert.Equal(t, 0.0, long.ProfitAt(1.1030, SymbolMeta{}))
}
