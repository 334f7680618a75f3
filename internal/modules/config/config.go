package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	databaseDSN       = "DATABASE_DSN"
	gatewayTokenENV   = "GATEWAY_TOKEN"
)

// Config ...
type Config struct {
	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
	DB string `yaml:"db_dsn"`

	// Брокерский мост (MT-шлюз): REST + WS котировки
	Gateway struct {
		BaseURL string `yaml:"base_url"`
		WSURL   string `yaml:"ws_url"`
		Token   string `yaml:"token"`
	} `yaml:"gateway"`

	Jaeger struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"jaeger"`

	HealthAddr string `yaml:"health_addr"`

	// Порядок символов фиксированный: от него зависит, кто первым
	// откусывает от дневного риск-бюджета.
	Symbols   []string `yaml:"symbols"`
	Timeframe string   `yaml:"timeframe"`

	// Какие стратегии включены по символу; пусто => DefaultStrategies.
	SymbolStrategies  map[string][]string `yaml:"symbol_strategies"`
	DefaultStrategies []string            `yaml:"strategies"`

	HistoryBars int `yaml:"history_bars"`
	ATRPeriod   int `yaml:"atr_period"` // волатильность в SymbolContext

	CycleInterval time.Duration
	MaxQuoteAge   time.Duration

	Risk     RiskConfig     `yaml:"risk"`
	Trailing TrailingConfig `yaml:"trailing"`
	Pivot    PivotConfig    `yaml:"pivot"`
	Ribbon   RibbonConfig   `yaml:"ribbon"`
	Session  SessionConfig  `yaml:"session"`
}

type RiskConfig struct {
	// Сколько от депозита мы готовы потерять по СТОПУ на одну сделку
	RiskPerTrade float64 `yaml:"risk_per_trade"` // например 0.01 => 1% equity

	// Дневной circuit breaker, в валюте счёта.
	// DailyLoss отрицательный (как в терминале): -300 => стоп после -300.
	DailyLoss   float64 `yaml:"daily_loss"`
	DailyProfit float64 `yaml:"daily_profit"`

	MaxPositionLot     float64 `yaml:"max_position_lot"`
	MinFreeMarginRatio float64 `yaml:"min_free_margin_ratio"`
	MinSLPips          float64 `yaml:"min_sl_pips"` // защита от гигантского лота при крошечном SL
	MaxLeverage        float64 `yaml:"max_leverage"`

	// true => предложение с урезанным (clamped) лотом отклоняется,
	// false => отдаём лот с уменьшенным эффективным риском.
	StrictSizing bool `yaml:"strict_sizing"`

	// true => при срабатывании дневного лосс-лимита открытые позиции
	// принудительно закрываются. По профит-таргету не закрываем никогда.
	CloseOnLossLimit bool `yaml:"close_on_loss_limit"`
}

type TrailingConfig struct {
	ProfitThresholdPips float64 `yaml:"profit_threshold_pips"` // с какого профита включается трейлинг
	BEOffsetPips        float64 `yaml:"be_offset_pips"`        // первый перенос: BE + offset
	LockFraction        float64 `yaml:"lock_fraction"`         // долю набранного профита запираем стопом
	StepPips            float64 `yaml:"step_pips"`             // не дёргаем брокера ради сдвигов меньше шага
}

type PivotConfig struct {
	SLMult float64 `yaml:"sl_atr_multiplier"`
}

type RibbonConfig struct {
	Periods []int   `yaml:"sma_periods"` // например 5/8/13
	TPMult  float64 `yaml:"tp_atr_multiplier"`
	SLMult  float64 `yaml:"sl_atr_multiplier"`
	// минимальный зазор между соседними SMA, в points
	MinSepPoints float64 `yaml:"min_sep_points"`
}

type SessionConfig struct {
	Timezone  string `yaml:"timezone"`
	OpenHour  int    `yaml:"open_hour"`
	CloseHour int    `yaml:"close_hour"`
}

func NewConfig() (*Config, error) {

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	file, err := os.Open("configs/" + configFileName)
	if err != nil {
		log.Fatalf("Failed to open config file: %v", err)
	}

	defer func() {
		_ = file.Close()
	}()

	decoder := yaml.NewDecoder(file)
	config := Config{
		Timeframe:   getenvDefault("TIMEFRAME", "M5"),
		HistoryBars: intFromEnv("HISTORY_BARS", 100),
		ATRPeriod:   intFromEnv("ATR_PERIOD", 14),

		CycleInterval: durationFromEnv("CYCLE_INTERVAL", "5s"),
		MaxQuoteAge:   durationFromEnv("MAX_QUOTE_AGE", "30s"),

		HealthAddr: getenvDefault("HEALTH_ADDR", ":8080"),

		DefaultStrategies: []string{"pivot", "ribbon"},

		Risk: RiskConfig{
			RiskPerTrade:       0.01,
			DailyLoss:          -100,
			DailyProfit:        500,
			MaxPositionLot:     1.0,
			MinFreeMarginRatio: 0.5,
			MinSLPips:          5,
			MaxLeverage:        floatFromEnv("MAX_LEVERAGE", 30),
			StrictSizing:       boolFromEnv("STRICT_SIZING", false),
			CloseOnLossLimit:   boolFromEnv("CLOSE_ON_LOSS_LIMIT", true),
		},
		Trailing: TrailingConfig{
			ProfitThresholdPips: 10,
			BEOffsetPips:        1,
			LockFraction:        0.5,
			StepPips:            5,
		},
		Pivot: PivotConfig{
			SLMult: 2.5,
		},
		Ribbon: RibbonConfig{
			Periods:      []int{5, 8, 13},
			TPMult:       1.5,
			SLMult:       2.5,
			MinSepPoints: 0.5,
		},
		Session: SessionConfig{
			Timezone:  getenvDefault("SESSION_TZ", "Europe/Bucharest"),
			OpenHour:  intFromEnv("SESSION_OPEN_HOUR", 8),
			CloseHour: intFromEnv("SESSION_CLOSE_HOUR", 23),
		},
	}
	err = decoder.Decode(&config)
	if err != nil {
		log.Fatalf("Failed to decode config file: %v", err)
	}

	token := os.Getenv(tokenTelegramENV)
	if token != "" {
		config.Telegram.Token = token
	}

	dsn := os.Getenv(databaseDSN)
	if dsn != "" {
		config.DB = dsn
	}

	if v := os.Getenv(gatewayTokenENV); v != "" {
		config.Gateway.Token = v
	}

	if len(config.Symbols) == 0 {
		return nil, fmt.Errorf("config: symbols list is empty")
	}
	if config.Risk.DailyLoss > 0 {
		// в конфиге ждём отрицательное значение, как в терминале
		config.Risk.DailyLoss = -config.Risk.DailyLoss
	}

	return &config, nil
}

// StrategiesFor — включённый набор стратегий для символа.
func (c *Config) StrategiesFor(symbol string) []string {
	if ss, ok := c.SymbolStrategies[symbol]; ok && len(ss) > 0 {
		return ss
	}
	return c.DefaultStrategies
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func floatFromEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func boolFromEnv(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(v) {
		case "1", "true":
			return true
		case "0", "false":
			return false
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationFromEnv(key, def string) time.Duration {
	val := getenvDefault(key, def)
	d, err := time.ParseDuration(val)
	if err != nil {
		d, _ = time.ParseDuration(def)
	}
	return d
}
