package models

// AccountState — снапшот счёта на начало цикла.
type AccountState struct {
	Equity     float64
	FreeMargin float64
}

func (a AccountState) FreeMarginRatio() float64 {
	if a.Equity <= 0 {
		return 0
	}
	return a.FreeMargin / a.Equity
}
