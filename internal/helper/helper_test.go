package helper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundToTick(t *testing.T) {
	assert.InDelta(t, 1.10010, RoundDownToTick(1.100104, 0.00001), 1e-9)
	assert.InDelta(t, 1.10011, RoundUpToTick(1.100104, 0.00001), 1e-9)

	// ровно на тике не двигаем ни вверх, ни вниз
	assert.InDelta(t, 1.10010, RoundDownToTick(1.10010, 0.00001), 1e-9)
	assert.InDelta(t, 1.10010, RoundUpToTick(1.10010, 0.00001), 1e-9)

	// нулевой тик — цена как есть
	assert.Equal(t, 1.2345, RoundDownToTick(1.2345, 0))
}

func TestRoundLotToStep(t *testing.T) {
	assert.InDelta(t, 0.27, RoundLotToStep(0.274, 0.01), 1e-9)
	assert.InDelta(t, 0.27, RoundLotToStep(0.27, 0.01), 1e-9)
	assert.InDelta(t, 0.0, RoundLotToStep(0.009, 0.01), 1e-9)
	assert.InDelta(t, 1.5, RoundLotToStep(1.5, 0), 1e-9)
}

func TestPips(t *testing.T) {
	assert.InDelta(t, 50, Pips(0.0050, 0.0001), 1e-9)
	assert.Equal(t, 0.0, Pips(0.0050, 0))
}

func TestSessionOpen(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Bucharest")
	require.NoError(t, err)

	s := Session{Location: loc, OpenHour: 8, CloseHour: 23}

	// понедельник 10:00 — торгуем
	assert.True(t, s.Open(time.Date(2026, 1, 5, 10, 0, 0, 0, loc)))
	// понедельник 07:59 — ещё закрыто
	assert.False(t, s.Open(time.Date(2026, 1, 5, 7, 59, 0, 0, loc)))
	// понедельник 23:00 — уже закрыто (правая граница не входит)
	assert.False(t, s.Open(time.Date(2026, 1, 5, 23, 0, 0, 0, loc)))
	// суббота — выходной
	assert.False(t, s.Open(time.Date(2026, 1, 10, 12, 0, 0, 0, loc)))
	// время в другой зоне приводится к сессионной
	utc := time.Date(2026, 1, 5, 6, 30, 0, 0, time.UTC) // 08:30 в Бухаресте
	assert.True(t, s.Open(utc))
}

func TestDayOf(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Bucharest")
	require.NoError(t, err)

	// 23:30 UTC воскресенья — уже понедельник в Бухаресте
	d := DayOf(time.Date(2026, 1, 4, 23, 30, 0, 0, time.UTC), loc)
	assert.Equal(t, time.Date(2026, 1, 5, 0, 0, 0, 0, loc), d)
}
