package runner

import (
	"context"

	"go.uber.org/fx"

	"fx_bot/internal/models"
	"fx_bot/internal/modules/config"
	gw "fx_bot/internal/modules/gateway/service"
	health "fx_bot/internal/modules/health/service"
	journal "fx_bot/internal/modules/journal/service"
	md "fx_bot/internal/modules/marketdata/service"
	risk "fx_bot/internal/modules/risk/service"
	strategy "fx_bot/internal/modules/strategy/service"
	trade "fx_bot/internal/modules/trade/service"
	"fx_bot/internal/notify"
)

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			func(
				cfg *config.Config,
				view *md.View,
				engines map[models.StrategyType]strategy.Engine,
				rm *risk.Manager,
				tm *trade.Manager,
				client *gw.Client,
				j *journal.Journal,
				state *health.State,
				n notify.Notifier,
			) *Runner {
				return New(cfg, view, engines, rm, tm, client, j, state, n)
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, r *Runner) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					return r.Start(context.Background())
				},
				OnStop: func(ctx context.Context) error {
					r.Stop()
					return nil
				},
			})
		}),
	)
}
