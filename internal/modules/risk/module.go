package risk

import (
	"go.uber.org/fx"

	"fx_bot/internal/modules/config"
	"fx_bot/internal/modules/risk/service"
	"fx_bot/internal/notify"
)

func Module() fx.Option {
	return fx.Module("risk",
		fx.Provide(
			func(cfg *config.Config, n notify.Notifier) *service.Manager {
				return service.NewManager(cfg, n)
			},
		),
	)
}
