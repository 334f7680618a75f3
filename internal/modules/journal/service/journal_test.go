package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fx_bot/internal/models"
	"fx_bot/pkg/db"
)

type fakeRow struct{ total float64 }

func (r fakeRow) Scan(dest ...any) error {
	*(dest[0].(*float64)) = r.total
	return nil
}

type fakeQuerier struct {
	total float64

	lastSQL  string
	lastArgs []any
}

func (q *fakeQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.lastSQL = sql
	q.lastArgs = args
	return pgconn.CommandTag{}, nil
}

func (q *fakeQuerier) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return nil, nil
}

func (q *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	q.lastSQL = sql
	q.lastArgs = args
	return fakeRow{total: q.total}
}

type fakeTxManager struct{ q *fakeQuerier }

func (t *fakeTxManager) Run(ctx context.Context, fn func(ctxTx context.Context, tx pgx.Tx) error) error {
	return nil
}

func (t *fakeTxManager) Conn() db.Querier { return t.q }

var _ db.TxManager = (*fakeTxManager)(nil)

func TestRealizedTodayCrossTimezone(t *testing.T) {
	// 22:30 UTC 5 января — в Бухаресте уже 00:30 шестого:
	// окно должно начинаться с бухарестской полуночи 6-го,
	// независимо от системной зоны процесса
	loc, err := time.LoadLocation("Europe/Bucharest")
	require.NoError(t, err)

	q := &fakeQuerier{total: -120}
	j := NewJournal(&fakeTxManager{q: q})

	now := time.Date(2026, 1, 5, 22, 30, 0, 0, time.UTC)
	total, err := j.RealizedToday(context.Background(), now, loc)
	require.NoError(t, err)
	assert.InDelta(t, -120, total, 1e-9)

	require.Len(t, q.lastArgs, 2)
	start := q.lastArgs[0].(time.Time)
	end := q.lastArgs[1].(time.Time)
	assert.True(t, start.Equal(time.Date(2026, 1, 6, 0, 0, 0, 0, loc)),
		"начало окна: %s", start)
	assert.True(t, end.Equal(time.Date(2026, 1, 7, 0, 0, 0, 0, loc)))
}

func TestRecordClose(t *testing.T) {
	q := &fakeQuerier{}
	j := NewJournal(&fakeTxManager{q: q})

	cp := models.ClosedPosition{
		Position: models.Position{
			Ticket: "T1", Symbol: "EURUSD", Side: models.SideBuy,
			Lot: 0.3, Entry: 1.1001, SL: 1.0950, TP: 1.1100, Risk: 150,
			Strategy: models.StrategyPivot,
			OpenedAt: time.Now(),
		},
		ClosePrice: 1.1050,
		Profit:     80,
		Reason:     models.CloseManual,
		ClosedAt:   time.Now(),
	}
	require.NoError(t, j.RecordClose(context.Background(), cp))
	assert.Contains(t, q.lastSQL, "INSERT INTO trades")
	assert.Len(t, q.lastArgs, 12)
	assert.Equal(t, "T1", q.lastArgs[0])
}
