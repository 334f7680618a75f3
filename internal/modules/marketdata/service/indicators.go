package service

import (
	"math"

	"fx_bot/internal/models"
)

// ATR по закрытым свечам: true range, сглаженный EMA со span=period
// (alpha = 2/(period+1), не 1/period по Уайлдеру). 0, если баров меньше
// period+1: для первого true range нужен предыдущий close.
func ATR(history []models.Candle, period int) float64 {
	if period <= 0 || len(history) < period+1 {
		return 0
	}

	atr := 0.0
	alpha := 2.0 / (float64(period) + 1)

	for i := 1; i < len(history); i++ {
		c := history[i]
		prevClose := history[i-1].Close

		tr := c.High - c.Low
		if d := math.Abs(c.High - prevClose); d > tr {
			tr = d
		}
		if d := math.Abs(c.Low - prevClose); d > tr {
			tr = d
		}

		if i == 1 {
			atr = tr
			continue
		}
		atr = alpha*tr + (1-alpha)*atr
	}

	return atr
}

// SMA по close последних period баров. 0, если истории не хватает.
func SMA(history []models.Candle, period int) float64 {
	if period <= 0 || len(history) < period {
		return 0
	}
	sum := 0.0
	for i := len(history) - period; i < len(history); i++ {
		sum += history[i].Close
	}
	return sum / float64(period)
}
