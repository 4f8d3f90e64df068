package data

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/valuescope/backend/internal/contracts"
	"github.com/wonny/valuescope/backend/pkg/database"
)

// DividendRepository implements contracts.DividendRepository
type DividendRepository struct {
	pool *pgxpool.Pool
}

// NewDividendRepository creates a new dividend repository
func NewDividendRepository(pool *pgxpool.Pool) *DividendRepository {
	return &DividendRepository{pool: pool}
}

// ListByStock returns dividends of stockID, newest ex-date first
func (r *DividendRepository) ListByStock(ctx context.Context, stockID string) ([]*contracts.Dividend, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT stock_id::text, ex_date, ann_date, pay_date, cash_per_share::float8
		FROM stock_dividends
		WHERE stock_id = $1::uuid
		ORDER BY ex_date DESC`, stockID)
	if err != nil {
		return nil, fmt.Errorf("query dividends: %w", err)
	}
	defer rows.Close()

	var out []*contracts.Dividend
	for rows.Next() {
		var d contracts.Dividend
		if err := rows.Scan(&d.StockID, &d.ExDate, &d.AnnDate, &d.PayDate, &d.CashPerShare); err != nil {
			return nil, fmt.Errorf("scan dividend: %w", err)
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

// UpsertBatch inserts or updates dividends on (stock_id, ex_date)
func (r *DividendRepository) UpsertBatch(ctx context.Context, dividends []*contracts.Dividend) (int, error) {
	if len(dividends) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO stock_dividends (stock_id, ex_date, ann_date, pay_date, cash_per_share)
		VALUES ($1::uuid, $2, $3, $4, $5)
		ON CONFLICT (stock_id, ex_date) DO UPDATE SET
			ann_date = EXCLUDED.ann_date,
			pay_date = EXCLUDED.pay_date,
			cash_per_share = EXCLUDED.cash_per_share
	`

	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, d := range dividends {
			batch.Queue(query, d.StockID, d.ExDate, d.AnnDate, d.PayDate, d.CashPerShare)
		}
		return sendBatch(ctx, tx, batch)
	})
	if err != nil {
		return 0, fmt.Errorf("upsert dividends: %w", err)
	}
	return len(dividends), nil
}
