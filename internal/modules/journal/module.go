package journal

import (
	"go.uber.org/fx"

	"fx_bot/internal/modules/journal/service"
	"fx_bot/pkg/db"
)

func Module() fx.Option {
	return fx.Module("journal",
		fx.Provide(
			func(tx *db.PgTxManager) *service.Journal {
				return service.NewJournal(tx)
			},
		),
	)
}
