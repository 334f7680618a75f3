package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/fx"

	"fx_bot/internal/modules/config"
	"fx_bot/internal/modules/gateway"
	"fx_bot/internal/modules/health"
	"fx_bot/internal/modules/journal"
	"fx_bot/internal/modules/marketdata"
	"fx_bot/internal/modules/postgres"
	"fx_bot/internal/modules/risk"
	"fx_bot/internal/modules/strategy"
	"fx_bot/internal/modules/trade"
	tradesvc "fx_bot/internal/modules/trade/service"
	"fx_bot/internal/notify"
	"fx_bot/internal/runner"
	"fx_bot/pkg/logger"
	"fx_bot/pkg/tracing"
)

func main() {
	_ = godotenv.Load() // .env опционален, в проде всё из окружения
	if name := os.Getenv("SERVICE_NAME"); name != "" {
		logger.SetServiceName(name)
		tracing.SetServiceName(name)
	}
	_ = logger.Init(false)

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
			newNotifier,
		),
		config.Module(),
		postgres.Module(),
		gateway.Module(),
		marketdata.Module(),
		strategy.Module(),
		risk.Module(),
		journal.Module(),
		trade.Module(),
		health.Module(),
		runner.Module(),
		fx.Invoke(initTracing),
		fx.Invoke(startNotifier),
	)
	if err := app.Start(context.Background()); err != nil {
		log.Fatal(err)
	}
	<-app.Done()
	if err := app.Stop(context.Background()); err != nil {
		log.Fatal(err)
	}
}

// Телеграм, если задан токен, иначе всё в лог.
func newNotifier(cfg *config.Config) notify.Notifier {
	if cfg.Telegram.Token == "" {
		logger.Warn("[MAIN] telegram token not set, notifications go to log only")
		return notify.NewStdout()
	}
	tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
	if err != nil {
		logger.Warn("[MAIN] telegram init failed: %v, fallback to log", err)
		return notify.NewStdout()
	}
	return tg
}

func initTracing(lc fx.Lifecycle, cfg *config.Config) error {
	if cfg.Jaeger.Host == "" {
		return nil
	}
	_, closer, err := tracing.InitTracer(tracing.Config{
		Host: cfg.Jaeger.Host,
		Port: cfg.Jaeger.Port,
	})
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			closer()
			return nil
		},
	})
	return nil
}

func startNotifier(lc fx.Lifecycle, ctx context.Context, n notify.Notifier, tm *tradesvc.Manager) {
	tg, ok := n.(*notify.Telegram)
	if !ok {
		return
	}
	tg.SetPositionSource(tm.Positions)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return tg.Start(ctx)
		},
		OnStop: func(context.Context) error {
			tg.Stop()
			return nil
		},
	})
}
