package runner

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fx_bot/internal/models"
	"fx_bot/internal/modules/config"
	gw "fx_bot/internal/modules/gateway/service"
	health "fx_bot/internal/modules/health/service"
	md "fx_bot/internal/modules/marketdata/service"
	risk "fx_bot/internal/modules/risk/service"
	strategy "fx_bot/internal/modules/strategy/service"
	trade "fx_bot/internal/modules/trade/service"
	"fx_bot/internal/notify"
)

// понедельник, внутри торговой сессии
var monday = time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)

type bridge struct {
	orders int
	closes int
}

// тестовый мост: история подстроена под пересечение PP снизу вверх
func (b *bridge) handler() http.Handler {
	writeJSON := func(w http.ResponseWriter, v any) {
		raw, _ := sonic.Marshal(v)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(raw)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/account", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"equity": 10000.0, "freeMargin": 9000.0})
	})
	mux.HandleFunc("/api/v1/symbols/EURUSD", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"symbol": "EURUSD", "point": 0.00001, "pipSize": 0.0001,
			"tickValue": 1.0, "lotStep": 0.01, "minLot": 0.01, "maxLot": 50.0,
		})
	})
	mux.HandleFunc("/api/v1/candles", func(w http.ResponseWriter, r *http.Request) {
		candles := make([]map[string]any, 0, 20)
		add := func(h, l, c float64) {
			candles = append(candles, map[string]any{
				"o": c, "h": h, "l": l, "c": c, "v": 100.0,
				"ts": int64(0), "cts": int64(0),
			})
		}
		for i := 0; i < 17; i++ {
			add(1.101, 1.099, 1.100)
		}
		add(1.200, 1.000, 1.100) // бар уровней: PP=1.1, R1=1.2, S1=1.0
		add(1.096, 1.094, 1.095)
		add(1.106, 1.104, 1.105) // закрытие пересекло PP вверх
		writeJSON(w, candles)
	})
	mux.HandleFunc("/api/v1/orders", func(w http.ResponseWriter, r *http.Request) {
		b.orders++
		writeJSON(w, map[string]any{"ticket": "T1", "price": 1.1053})
	})
	mux.HandleFunc("/api/v1/orders/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/close") {
			b.closes++
			writeJSON(w, map[string]any{"price": 1.1040, "profit": -40.0})
			return
		}
		w.WriteHeader(http.StatusOK) // modify stop
	})
	return mux
}

func runnerConfig(baseURL string) *config.Config {
	cfg := &config.Config{
		Symbols:           []string{"EURUSD"},
		Timeframe:         "M5",
		HistoryBars:       20,
		ATRPeriod:         3,
		MaxQuoteAge:       30 * time.Second,
		DefaultStrategies: []string{"pivot"},
		Risk: config.RiskConfig{
			RiskPerTrade:       0.01,
			DailyLoss:          -1000,
			DailyProfit:        10000,
			MaxPositionLot:     1.0,
			MinFreeMarginRatio: 0.2,
			MinSLPips:          5,
		},
		Trailing: config.TrailingConfig{
			ProfitThresholdPips: 10,
			BEOffsetPips:        1,
			LockFraction:        0.5,
			StepPips:            5,
		},
		Pivot:  config.PivotConfig{SLMult: 2.5},
		Ribbon: config.RibbonConfig{Periods: []int{5, 8, 13}, TPMult: 1.5, SLMult: 2.5},
		Session: config.SessionConfig{
			Timezone:  "UTC",
			OpenHour:  0,
			CloseHour: 24,
		},
	}
	cfg.Gateway.BaseURL = baseURL
	return cfg
}

func TestRunCycleOpensAndDeduplicates(t *testing.T) {
	b := &bridge{}
	srv := httptest.NewServer(b.handler())
	defer srv.Close()

	cfg := runnerConfig(srv.URL)
	client := gw.NewClient(cfg)
	view := md.NewView(cfg, client)
	require.NoError(t, view.Warmup(context.Background()))

	n := notify.NewStdout()
	rm := risk.NewManager(cfg, n)
	tm := trade.NewManager(cfg, client, rm, nil, n)
	state := health.NewState()
	engines := strategy.NewEngines(cfg)

	r := New(cfg, view, engines, rm, tm, client, nil, state, n)

	view.ApplyQuote(gw.Quote{Symbol: "EURUSD", Bid: 1.1050, Ask: 1.1052, At: monday})
	r.RunCycle(context.Background(), monday)

	require.Len(t, tm.Positions(), 1, "сигнал pivot должен открыть позицию")
	pos := tm.Positions()[0]
	assert.Equal(t, models.SideBuy, pos.Side)
	assert.Equal(t, "T1", pos.Ticket)
	assert.Equal(t, models.PosOpen, pos.State)
	assert.Equal(t, 1, b.orders)

	// второй цикл: тот же сигнал отсеивается как дубль, ордеров больше нет
	view.ApplyQuote(gw.Quote{Symbol: "EURUSD", Bid: 1.1050, Ask: 1.1052, At: monday})
	r.RunCycle(context.Background(), monday.Add(5*time.Second))

	assert.Len(t, tm.Positions(), 1)
	assert.Equal(t, 1, b.orders)

	assert.EqualValues(t, 2, state.Cycles())
	assert.EqualValues(t, 1, state.OpenPositions())
	assert.False(t, state.BreakerActive())
}

func TestRunCycleLossLimitLiquidation(t *testing.T) {
	b := &bridge{}
	srv := httptest.NewServer(b.handler())
	defer srv.Close()

	cfg := runnerConfig(srv.URL)
	cfg.Risk.CloseOnLossLimit = true
	client := gw.NewClient(cfg)
	view := md.NewView(cfg, client)
	require.NoError(t, view.Warmup(context.Background()))

	n := notify.NewStdout()
	rm := risk.NewManager(cfg, n)
	tm := trade.NewManager(cfg, client, rm, nil, n)
	state := health.NewState()
	r := New(cfg, view, strategy.NewEngines(cfg), rm, tm, client, nil, state, n)

	view.ApplyQuote(gw.Quote{Symbol: "EURUSD", Bid: 1.1050, Ask: 1.1052, At: monday})
	r.RunCycle(context.Background(), monday)
	require.Len(t, tm.Positions(), 1)

	// дневной лимит пробит: следующий цикл ликвидирует открытое
	rm.ApplyRealized(-1500)
	r.RunCycle(context.Background(), monday.Add(5*time.Second))
	assert.Empty(t, tm.Positions())
	assert.Equal(t, 1, b.closes)
	assert.True(t, state.BreakerActive())

	// тот же день: лимит всё ещё действует, входов и закрытий больше нет
	view.ApplyQuote(gw.Quote{Symbol: "EURUSD", Bid: 1.1050, Ask: 1.1052, At: monday})
	r.RunCycle(context.Background(), monday.Add(10*time.Second))
	assert.Empty(t, tm.Positions())
	assert.Equal(t, 1, b.orders)
	assert.Equal(t, 1, b.closes)

	// новый день снимает стоп и защёлку ликвидации: торгуем снова
	nextDay := monday.AddDate(0, 0, 1)
	view.ApplyQuote(gw.Quote{Symbol: "EURUSD", Bid: 1.1050, Ask: 1.1052, At: nextDay})
	r.RunCycle(context.Background(), nextDay)
	assert.Len(t, tm.Positions(), 1)
	assert.Equal(t, 2, b.orders)
	assert.Equal(t, 1, b.closes)
	assert.False(t, state.BreakerActive())
}

func TestRunCycleSkipsStaleSymbol(t *testing.T) {
	b := &bridge{}
	srv := httptest.NewServer(b.handler())
	defer srv.Close()

	cfg := runnerConfig(srv.URL)
	client := gw.NewClient(cfg)
	view := md.NewView(cfg, client)
	require.NoError(t, view.Warmup(context.Background()))

	n := notify.NewStdout()
	rm := risk.NewManager(cfg, n)
	tm := trade.NewManager(cfg, client, rm, nil, n)
	r := New(cfg, view, strategy.NewEngines(cfg), rm, tm, client, nil, health.NewState(), n)

	// котировка минутной давности: символ вне цикла, входов нет
	view.ApplyQuote(gw.Quote{Symbol: "EURUSD", Bid: 1.1050, Ask: 1.1052, At: monday.Add(-time.Minute)})
	r.RunCycle(context.Background(), monday)

	assert.Empty(t, tm.Positions())
	assert.Zero(t, b.orders)
}
