package trade

import (
	"go.uber.org/fx"

	"fx_bot/internal/modules/config"
	gw "fx_bot/internal/modules/gateway/service"
	journal "fx_bot/internal/modules/journal/service"
	risk "fx_bot/internal/modules/risk/service"
	"fx_bot/internal/modules/trade/service"
	"fx_bot/internal/notify"
)

func Module() fx.Option {
	return fx.Module("trade",
		fx.Provide(
			func(cfg *config.Config, client *gw.Client, rm *risk.Manager, j *journal.Journal, n notify.Notifier) *service.Manager {
				return service.NewManager(cfg, client, rm, j, n)
			},
		),
	)
}
