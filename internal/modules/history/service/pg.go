package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"

	"signal_portal/internal/models"
	"signal_portal/pkg/db"
)

// History persists every emitted signal. A nil History is a valid no-op,
// used when the service runs without a database.
type History struct {
	tm db.TxManager
}

func NewHistory(tm db.TxManager) *History {
	return &History{tm: tm}
}

const createSignalsTable = `
CREATE TABLE IF NOT EXISTS signals (
    id         BIGSERIAL PRIMARY KEY,
    symbol     TEXT             NOT NULL,
    timeframe  TEXT             NOT NULL,
    strategy   TEXT             NOT NULL,
    direction  TEXT             NOT NULL,
    price      DOUBLE PRECISION NOT NULL,
    message    TEXT             NOT NULL,
    snapshot   JSONB            NOT NULL DEFAULT '{}',
    bar_time   TIMESTAMPTZ      NOT NULL,
    emitted_at TIMESTAMPTZ      NOT NULL
)`

const createSignalsIndex = `
CREATE INDEX IF NOT EXISTS signals_emitted_at_idx ON signals (emitted_at DESC)`

// Migrate creates the signals table and its read index in one transaction,
// so a failed index build never leaves a half-migrated schema behind.
func (h *History) Migrate(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("history.Migrate: %w", err)
		}
	}()
	return h.tm.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctxTx, createSignalsTable); err != nil {
			return err
		}
		_, err := tx.Exec(ctxTx, createSignalsIndex)
		return err
	})
}

func (h *History) Insert(ctx context.Context, sig models.Signal) (err error) {
	if h == nil {
		return nil
	}
	defer func() {
		if err != nil {
			err = fmt.Errorf("history.Insert: %w", err)
		}
	}()
	snap, err := sonic.Marshal(sig.Snapshot)
	if err != nil {
		return
	}
	_, err = h.tm.Conn().Exec(ctx,
		`INSERT INTO signals (symbol, timeframe, strategy, direction, price, message, snapshot, bar_time, emitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		sig.Symbol, string(sig.Timeframe), string(sig.Strategy), string(sig.Direction),
		sig.Price, sig.Message, snap, sig.TriggerBarTime, sig.EmittedAt)
	return
}

// Recent returns up to limit stored signals matching the filter, newest
// first. A nil History returns nothing.
func (h *History) Recent(ctx context.Context, f models.Filter, limit int) (out []models.Signal, err error) {
	if h == nil {
		return nil, nil
	}
	defer func() {
		if err != nil {
			err = fmt.Errorf("history.Recent: %w", err)
		}
	}()
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `SELECT symbol, timeframe, strategy, direction, price, message, snapshot, bar_time, emitted_at
		 FROM signals`
	args := make([]interface{}, 0, 4)
	where := ""
	add := func(clause string, vals []string) {
		if len(vals) == 0 {
			return
		}
		args = append(args, vals)
		if where == "" {
			where = " WHERE "
		} else {
			where += " AND "
		}
		where += fmt.Sprintf(clause, len(args))
	}
	add("symbol = ANY($%d)", f.Symbols)
	add("timeframe = ANY($%d)", tfStrings(f.Timeframes))
	add("strategy = ANY($%d)", kindStrings(f.Strategies))

	args = append(args, limit)
	query += where + fmt.Sprintf(" ORDER BY emitted_at DESC LIMIT $%d", len(args))

	rows, err := h.tm.Conn().Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			sig      models.Signal
			tf, kind string
			dir      string
			snap     []byte
			barTime  time.Time
			emitted  time.Time
		)
		if err = rows.Scan(&sig.Symbol, &tf, &kind, &dir, &sig.Price, &sig.Message, &snap, &barTime, &emitted); err != nil {
			return nil, err
		}
		sig.Timeframe = models.Timeframe(tf)
		sig.Strategy = models.StrategyKind(kind)
		sig.Direction = models.Direction(dir)
		sig.TriggerBarTime = barTime
		sig.EmittedAt = emitted
		if len(snap) > 0 {
			if err = sonic.Unmarshal(snap, &sig.Snapshot); err != nil {
				return nil, err
			}
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}

func tfStrings(tfs []models.Timeframe) []string {
	out := make([]string, 0, len(tfs))
	for _, tf := range tfs {
		out = append(out, string(tf))
	}
	return out
}

func kindStrings(kinds []models.StrategyKind) []string {
	out := make([]string, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, string(k))
	}
	return out
}
