package service

import "fx_bot/internal/models"

// Engine — чистая функция от снапшота рынка: ноль или один сигнал.
// Никакого доступа к счёту и позициям, никаких побочных эффектов —
// решает только по истории цены и волатильности.
type Engine interface {
	// ok==true когда есть сигнал
	Evaluate(sc models.SymbolContext) (sig models.Signal, ok bool)

	Name() models.StrategyType
}
