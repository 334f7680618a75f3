package service

import (
	"context"
	"time"

	"fx_bot/internal/helper"
	"fx_bot/internal/models"
	"fx_bot/pkg/db"
	"fx_bot/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

// Journal пишет закрытые сделки в Postgres и восстанавливает
// реализованный дневной P&L после рестарта.
type Journal struct {
	tx db.TxManager
}

func NewJournal(tx db.TxManager) *Journal {
	return &Journal{tx: tx}
}

const createTradesTable = `
CREATE TABLE IF NOT EXISTS trades (
    id          BIGSERIAL PRIMARY KEY,
    ticket      TEXT        NOT NULL,
    symbol      TEXT        NOT NULL,
    side        TEXT        NOT NULL,
    lot         NUMERIC     NOT NULL,
    entry       NUMERIC     NOT NULL,
    close_price NUMERIC     NOT NULL,
    profit      NUMERIC     NOT NULL,
    reason      TEXT        NOT NULL,
    strategy    TEXT        NOT NULL,
    opened_at   TIMESTAMPTZ NOT NULL,
    closed_at   TIMESTAMPTZ NOT NULL,
    details     JSONB       NOT NULL DEFAULT '{}'
)`

// Migrate создаёт схему. Идемпотентно, гоняем на старте.
func (j *Journal) Migrate(ctx context.Context) error {
	if _, err := j.tx.Conn().Exec(ctx, createTradesTable); err != nil {
		return errors.Wrap(err, "migrate trades")
	}
	return nil
}

type closeDetails struct {
	SL   float64 `json:"sl"`
	TP   float64 `json:"tp"`
	Risk float64 `json:"risk"`
}

func (j *Journal) RecordClose(ctx context.Context, cp models.ClosedPosition) error {
	details, err := sonic.Marshal(closeDetails{SL: cp.SL, TP: cp.TP, Risk: cp.Risk})
	if err != nil {
		return errors.Wrap(err, "marshal details")
	}

	_, err = j.tx.Conn().Exec(ctx, `
		INSERT INTO trades (ticket, symbol, side, lot, entry, close_price, profit, reason, strategy, opened_at, closed_at, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		cp.Ticket, cp.Symbol, string(cp.Side), cp.Lot, cp.Entry, cp.ClosePrice,
		cp.Profit, string(cp.Reason), string(cp.Strategy), cp.OpenedAt, cp.ClosedAt, details,
	)
	if err != nil {
		return errors.Wrapf(err, "insert trade %s", cp.Ticket)
	}
	return nil
}

// RealizedToday — сумма профитов за торговый день day в зоне loc.
// Нужна, чтобы дневной circuit breaker переживал рестарт процесса.
// Граница дня считается той же helper.DayOf, что и в риск-менеджере,
// иначе при системной зоне != сессионной насчитаем чужой день.
func (j *Journal) RealizedToday(ctx context.Context, day time.Time, loc *time.Location) (float64, error) {
	start := helper.DayOf(day, loc)
	end := start.AddDate(0, 0, 1)

	var total float64
	err := j.tx.Conn().QueryRow(ctx, `
		SELECT COALESCE(SUM(profit), 0) FROM trades
		WHERE closed_at >= $1 AND closed_at < $2`,
		start, end,
	).Scan(&total)
	if err != nil {
		return 0, errors.Wrap(err, "realized today")
	}

	logger.Info("[JOURNAL] realized P&L for %s: %.2f", start.Format("2006-01-02"), total)
	return total, nil
}
