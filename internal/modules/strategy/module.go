package strategy

import (
	"go.uber.org/fx"

	"fx_bot/internal/modules/strategy/service"
)

func Module() fx.Option {
	return fx.Module("strategy",
		fx.Provide(
			service.NewEngines, // map[models.StrategyType]service.Engine
		),
	)
}
