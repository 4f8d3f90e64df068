package data

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/valuescope/backend/internal/contracts"
)

// SnapshotRepository implements contracts.SnapshotRepository
// ⭐ SSOT: 지표 스냅샷 저장소는 여기서만
type SnapshotRepository struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

const snapshotSelect = `
	SELECT s.id::text, s.code, s.name, s.market, s.industry,
		i.as_of, i.price, i.pe_ttm, i.pb, i.pe_percentile, i.pb_percentile,
		i.valuation_status, i.dividend_yield, i.roe, i.revenue_growth, i.profit_growth,
		i.true_money_index, i.market_cap, i.consecutive_dividend_years
	FROM indicator_snapshots i
	JOIN stocks s ON s.id = i.stock_id
`

func scanSnapshot(row pgx.Row) (*contracts.IndicatorSnapshot, error) {
	var s contracts.IndicatorSnapshot
	err := row.Scan(&s.StockID, &s.Code, &s.Name, &s.Market, &s.Industry,
		&s.AsOf, &s.Price, &s.PETTM, &s.PB, &s.PEPercentile, &s.PBPercentile,
		&s.ValuationStatus, &s.DividendYield, &s.ROE, &s.RevenueGrowth, &s.ProfitGrowth,
		&s.TrueMoneyIndex, &s.MarketCap, &s.ConsecutiveDividendYears)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByCode returns the snapshot of code or contracts.ErrNotFound
func (r *SnapshotRepository) GetByCode(ctx context.Context, code string) (*contracts.IndicatorSnapshot, error) {
	s, err := scanSnapshot(r.pool.QueryRow(ctx, snapshotSelect+` WHERE s.code = $1`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s: %w", code, err)
	}
	return s, nil
}

// ListCandidates returns snapshots of active stocks in the given markets and industries
func (r *SnapshotRepository) ListCandidates(ctx context.Context, markets, industries []string) ([]*contracts.IndicatorSnapshot, error) {
	query := snapshotSelect + `
		WHERE s.status = $1
		  AND (cardinality($2::text[]) = 0 OR s.market = ANY($2::text[]))
		  AND (cardinality($3::text[]) = 0 OR s.industry = ANY($3::text[]))
		ORDER BY s.code
	`
	if markets == nil {
		markets = []string{}
	}
	if industries == nil {
		industries = []string{}
	}

	rows, err := r.pool.Query(ctx, query, contracts.StockStatusActive, markets, industries)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []*contracts.IndicatorSnapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Upsert replaces the snapshot of s.StockID
func (r *SnapshotRepository) Upsert(ctx context.Context, s *contracts.IndicatorSnapshot) error {
	query := `
		INSERT INTO indicator_snapshots (stock_id, as_of, price, pe_ttm, pb, pe_percentile, pb_percentile,
			valuation_status, dividend_yield, roe, revenue_growth, profit_growth,
			true_money_index, market_cap, consecutive_dividend_years, updated_at)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW())
		ON CONFLICT (stock_id) DO UPDATE SET
			as_of = EXCLUDED.as_of,
			price = EXCLUDED.price,
			pe_ttm = EXCLUDED.pe_ttm,
			pb = EXCLUDED.pb,
			pe_percentile = EXCLUDED.pe_percentile,
			pb_percentile = EXCLUDED.pb_percentile,
			valuation_status = EXCLUDED.valuation_status,
			dividend_yield = EXCLUDED.dividend_yield,
			roe = EXCLUDED.roe,
			revenue_growth = EXCLUDED.revenue_growth,
			profit_growth = EXCLUDED.profit_growth,
			true_money_index = EXCLUDED.true_money_index,
			market_cap = EXCLUDED.market_cap,
			consecutive_dividend_years = EXCLUDED.consecutive_dividend_years,
			updated_at = NOW()
	`

	_, err := r.pool.Exec(ctx, query, s.StockID, s.AsOf, s.Price, s.PETTM, s.PB,
		s.PEPercentile, s.PBPercentile, s.ValuationStatus, s.DividendYield, s.ROE,
		s.RevenueGrowth, s.ProfitGrowth, s.TrueMoneyIndex, s.MarketCap, s.ConsecutiveDividendYears)
	if err != nil {
		return fmt.Errorf("upsert snapshot %s: %w", s.Code, err)
	}
	return nil
}
