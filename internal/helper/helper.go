package helper

import (
	"math"
	"time"
)

func RoundDownToTick(px, tick float64) float64 {
	if tick <= 0 {
		return px
	}
	steps := math.Floor(px/tick + 1e-12)
	return steps * tick
}

func RoundUpToTick(px, tick float64) float64 {
	if tick <= 0 {
		return px
	}
	steps := math.Ceil(px/tick - 1e-12)
	return steps * tick
}

// RoundLotToStep — лот вниз к ближайшему шагу брокера.
// Вниз, а не к ближайшему: округление вверх увеличило бы риск.
func RoundLotToStep(lot, step float64) float64 {
	if step <= 0 {
		return lot
	}
	steps := math.Floor(lot/step + 1e-9)
	return math.Round(steps*step*1e8) / 1e8
}

// Pips — дистанция цены в пипсах.
func Pips(dist, pipSize float64) float64 {
	if pipSize <= 0 {
		return 0
	}
	return dist / pipSize
}

// Session — торговое окно в часах локального времени биржи/бота.
// Рынок форекс у нас: будни, с OpenHour до CloseHour.
type Session struct {
	Location  *time.Location
	OpenHour  int
	CloseHour int
}

func (s Session) Open(now time.Time) bool {
	if s.Location != nil {
		now = now.In(s.Location)
	}
	wd := now.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}
	h := now.Hour()
	return h >= s.OpenHour && h < s.CloseHour
}

// DayOf — граница торгового дня для дневного учёта P&L.
func DayOf(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
