package data

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/valuescope/backend/internal/contracts"
	"github.com/wonny/valuescope/backend/pkg/database"
)

// FinancialRepository implements contracts.FinancialRepository
type FinancialRepository struct {
	pool *pgxpool.Pool
}

// NewFinancialRepository creates a new financial repository
func NewFinancialRepository(pool *pgxpool.Pool) *FinancialRepository {
	return &FinancialRepository{pool: pool}
}

// ListByStock returns every report of stockID, newest first
func (r *FinancialRepository) ListByStock(ctx context.Context, stockID string) ([]*contracts.Financial, error) {
	query := `
		SELECT stock_id::text, report_date, report_type,
			revenue::float8, net_profit::float8, operating_cash_flow::float8,
			total_assets::float8, total_liabilities::float8, equity::float8, roe::float8
		FROM stock_financials
		WHERE stock_id = $1::uuid
		ORDER BY report_date DESC
	`

	rows, err := r.pool.Query(ctx, query, stockID)
	if err != nil {
		return nil, fmt.Errorf("query financials: %w", err)
	}
	defer rows.Close()

	var out []*contracts.Financial
	for rows.Next() {
		var f contracts.Financial
		if err := rows.Scan(&f.StockID, &f.ReportDate, &f.ReportType,
			&f.Revenue, &f.NetProfit, &f.OperatingCashFlow,
			&f.TotalAssets, &f.TotalLiabilities, &f.Equity, &f.ROE); err != nil {
			return nil, fmt.Errorf("scan financial: %w", err)
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}

// UpsertBatch inserts or updates reports on (stock_id, report_date, report_type)
func (r *FinancialRepository) UpsertBatch(ctx context.Context, financials []*contracts.Financial) (int, error) {
	if len(financials) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO stock_financials (stock_id, report_date, report_type, revenue, net_profit,
			operating_cash_flow, total_assets, total_liabilities, equity, roe)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (stock_id, report_date, report_type) DO UPDATE SET
			revenue = COALESCE(EXCLUDED.revenue, stock_financials.revenue),
			net_profit = COALESCE(EXCLUDED.net_profit, stock_financials.net_profit),
			operating_cash_flow = COALESCE(EXCLUDED.operating_cash_flow, stock_financials.operating_cash_flow),
			total_assets = COALESCE(EXCLUDED.total_assets, stock_financials.total_assets),
			total_liabilities = COALESCE(EXCLUDED.total_liabilities, stock_financials.total_liabilities),
			equity = COALESCE(EXCLUDED.equity, stock_financials.equity),
			roe = COALESCE(EXCLUDED.roe, stock_financials.roe),
			updated_at = NOW()
	`

	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, f := range financials {
			batch.Queue(query, f.StockID, f.ReportDate, f.ReportType, f.Revenue, f.NetProfit,
				f.OperatingCashFlow, f.TotalAssets, f.TotalLiabilities, f.Equity, f.ROE)
		}
		return sendBatch(ctx, tx, batch)
	})
	if err != nil {
		return 0, fmt.Errorf("upsert financials: %w", err)
	}
	return len(financials), nil
}
