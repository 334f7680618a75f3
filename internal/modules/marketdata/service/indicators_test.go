package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fx_bot/internal/models"
)

func bars(closes ...float64) []models.Candle {
	out := make([]models.Candle, 0, len(closes))
	for _, c := range closes {
		out = append(out, models.Candle{
			Open:  c,
			High:  c + 0.001,
			Low:   c - 0.001,
			Close: c,
		})
	}
	return out
}

func TestATR(t *testing.T) {
	// для первого true range нужен предыдущий close
	assert.Equal(t, 0.0, ATR(bars(1.0, 1.1, 1.2), 3))
	assert.Equal(t, 0.0, ATR(nil, 14))
	assert.Equal(t, 0.0, ATR(bars(1.0, 1.1), 0))

	// на одинаковых барах ATR сходится к high-low
	h := bars(1.1, 1.1, 1.1, 1.1, 1.1, 1.1)
	assert.InDelta(t, 0.002, ATR(h, 3), 1e-9)

	// гэп между закрытиями расширяет true range
	gapped := bars(1.1, 1.1)
	gapped = append(gapped, models.Candle{Open: 1.2, High: 1.201, Low: 1.199, Close: 1.2})
	atr := ATR(gapped, 2)
	assert.Greater(t, atr, 0.002) // |high - prevClose| = 0.101 попал в сглаживание
}

func TestSMA(t *testing.T) {
	h := bars(1.0, 2.0, 3.0, 4.0, 5.0)
	assert.InDelta(t, 4.0, SMA(h, 3), 1e-9) // последние 3: 3,4,5
	assert.InDelta(t, 3.0, SMA(h, 5), 1e-9)
	assert.Equal(t, 0.0, SMA(h, 6)) // истории не хватает
	assert.Equal(t, 0.0, SMA(h, 0))
}
