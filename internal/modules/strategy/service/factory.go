package service

import (
	"fx_bot/internal/models"
	"fx_bot/internal/modules/config"
	"fx_bot/pkg/logger"
)

// NewEngines — закрытый набор вариантов, диспетчеризация по конфигу.
// Неизвестное имя стратегии — ошибка конфигурации, а не плагин.
func NewEngines(cfg *config.Config) map[models.StrategyType]Engine {
	engines := map[models.StrategyType]Engine{
		models.StrategyPivot:  NewPivot(cfg),
		models.StrategyRibbon: NewRibbon(cfg),
	}

	for _, sym := range cfg.Symbols {
		for _, name := range cfg.StrategiesFor(sym) {
			if _, ok := engines[models.StrategyType(name)]; !ok {
				logger.Fatal("[STRAT] unknown strategy %q for %s", name, sym)
			}
		}
	}
	return engines
}
