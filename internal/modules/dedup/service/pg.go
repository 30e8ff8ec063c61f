package service

import (
	"context"
	"fmt"
	"time"

	"signal_portal/internal/models"
	"signal_portal/pkg/db"
)

// PG is the durable store: marks survive restarts, so a signal already sent
// before a crash is not re-sent after it. All monotonic comparisons happen
// inside single statements, which makes Claim atomic across processes too.
type PG struct {
	tm db.TxManager
}

func NewPG(tm db.TxManager) *PG {
	return &PG{tm: tm}
}

const createMarksTable = `
CREATE TABLE IF NOT EXISTS signal_marks (
    symbol    TEXT        NOT NULL,
    timeframe TEXT        NOT NULL,
    strategy  TEXT        NOT NULL,
    bar_time  TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (symbol, timeframe, strategy)
)`

// Migrate creates the marks table.
func (p *PG) Migrate(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("dedup.PG.Migrate: %w", err)
		}
	}()
	_, err = p.tm.Conn().Exec(ctx, createMarksTable)
	return
}

func (p *PG) ShouldEmit(ctx context.Context, key models.DedupKey, barTime time.Time) (ok bool, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("dedup.PG.ShouldEmit: %w", err)
		}
	}()
	var count int
	err = p.tm.Conn().QueryRow(ctx,
		`SELECT COUNT(*) FROM signal_marks
		 WHERE symbol = $1 AND timeframe = $2 AND strategy = $3 AND bar_time >= $4`,
		key.Symbol, string(key.Timeframe), string(key.Strategy), barTime,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

func (p *PG) MarkEmitted(ctx context.Context, key models.DedupKey, barTime time.Time) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("dedup.PG.MarkEmitted: %w", err)
		}
	}()
	_, err = p.tm.Conn().Exec(ctx, upsertMark,
		key.Symbol, string(key.Timeframe), string(key.Strategy), barTime)
	return
}

const upsertMark = `
INSERT INTO signal_marks (symbol, timeframe, strategy, bar_time)
VALUES ($1, $2, $3, $4)
ON CONFLICT (symbol, timeframe, strategy)
DO UPDATE SET bar_time = EXCLUDED.bar_time
WHERE signal_marks.bar_time < EXCLUDED.bar_time`

func (p *PG) Claim(ctx context.Context, key models.DedupKey, barTime time.Time) (ok bool, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("dedup.PG.Claim: %w", err)
		}
	}()
	tag, err := p.tm.Conn().Exec(ctx, upsertMark,
		key.Symbol, string(key.Timeframe), string(key.Strategy), barTime)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (p *PG) ResetKind(ctx context.Context, kind models.StrategyKind) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("dedup.PG.ResetKind: %w", err)
		}
	}()
	_, err = p.tm.Conn().Exec(ctx,
		`DELETE FROM signal_marks WHERE strategy = $1`, string(kind))
	return
}
