package marketdata

import (
	"go.uber.org/fx"

	"fx_bot/internal/modules/config"
	gw "fx_bot/internal/modules/gateway/service"
	"fx_bot/internal/modules/marketdata/service"
)

func Module() fx.Option {
	return fx.Module("marketdata",
		fx.Provide(
			func(cfg *config.Config, client *gw.Client) *service.View {
				return service.NewView(cfg, client)
			},
		),
	)
}
