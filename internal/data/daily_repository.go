package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/valuescope/backend/internal/contracts"
	"github.com/wonny/valuescope/backend/pkg/database"
)

// DailyRepository implements contracts.DailyRepository
type DailyRepository struct {
	pool *pgxpool.Pool
}

// NewDailyRepository creates a new daily bar repository
func NewDailyRepository(pool *pgxpool.Pool) *DailyRepository {
	return &DailyRepository{pool: pool}
}

const dailyColumns = `stock_id::text, date, open::float8, high::float8, low::float8, close::float8,
	volume, amount::float8, pe_ttm::float8, pb::float8, dividend_yield::float8, total_mv::float8`

func scanDaily(row pgx.Row) (*contracts.DailyBar, error) {
	var d contracts.DailyBar
	err := row.Scan(&d.StockID, &d.Date, &d.Open, &d.High, &d.Low, &d.Close,
		&d.Volume, &d.Amount, &d.PETTM, &d.PB, &d.DividendYield, &d.TotalMV)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Range returns bars of stockID between from and to (inclusive), newest first
func (r *DailyRepository) Range(ctx context.Context, stockID string, from, to *time.Time) ([]*contracts.DailyBar, error) {
	query := `
		SELECT ` + dailyColumns + `
		FROM stock_daily
		WHERE stock_id = $1::uuid
		  AND ($2::date IS NULL OR date >= $2::date)
		  AND ($3::date IS NULL OR date <= $3::date)
		ORDER BY date DESC
	`

	rows, err := r.pool.Query(ctx, query, stockID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query daily bars: %w", err)
	}
	defer rows.Close()

	var bars []*contracts.DailyBar
	for rows.Next() {
		d, err := scanDaily(rows)
		if err != nil {
			return nil, fmt.Errorf("scan daily bar: %w", err)
		}
		bars = append(bars, d)
	}
	return bars, rows.Err()
}

// Latest returns the most recent priced bar of stockID or contracts.ErrNotFound
func (r *DailyRepository) Latest(ctx context.Context, stockID string) (*contracts.DailyBar, error) {
	d, err := scanDaily(r.pool.QueryRow(ctx, `
		SELECT `+dailyColumns+`
		FROM stock_daily
		WHERE stock_id = $1::uuid AND close IS NOT NULL
		ORDER BY date DESC
		LIMIT 1`, stockID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest daily bar: %w", err)
	}
	return d, nil
}

// UpsertBatch inserts or updates bars on (stock_id, date)
func (r *DailyRepository) UpsertBatch(ctx context.Context, bars []*contracts.DailyBar) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO stock_daily (stock_id, date, open, high, low, close, volume, amount,
			pe_ttm, pb, dividend_yield, total_mv)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (stock_id, date) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume,
			amount = EXCLUDED.amount,
			pe_ttm = EXCLUDED.pe_ttm,
			pb = EXCLUDED.pb,
			dividend_yield = EXCLUDED.dividend_yield,
			total_mv = EXCLUDED.total_mv
	`

	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, d := range bars {
			batch.Queue(query, d.StockID, d.Date, d.Open, d.High, d.Low, d.Close, d.Volume,
				d.Amount, d.PETTM, d.PB, d.DividendYield, d.TotalMV)
		}
		return sendBatch(ctx, tx, batch)
	})
	if err != nil {
		return 0, fmt.Errorf("upsert daily bars: %w", err)
	}
	return len(bars), nil
}
