package postgres

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"fx_bot/internal/modules/config"
	"fx_bot/pkg/db"
)

// Пул регистрируем как fx-провайдер. Ping на старте: без базы не
// восстановить дневной P&L, запускаться бессмысленно.
func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			func(ctx context.Context, cfg *config.Config) (*db.PgTxManager, error) {
				pool, err := db.NewPool(ctx, db.PoolConfig{
					DSN: cfg.DB,
				})
				if err != nil {
					return nil, fmt.Errorf("failed to create pool: %w", err)
				}

				err = pool.Ping(ctx)
				if err != nil {
					return nil, err
				}

				return db.NewPgTxManager(pool), nil
			},
		),
	)
}
