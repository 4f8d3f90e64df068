package data

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/valuescope/backend/internal/contracts"
	"github.com/wonny/valuescope/backend/pkg/database"
)

// StockRepository implements contracts.StockRepository
// ⭐ SSOT: 종목 마스터 저장소는 여기서만
type StockRepository struct {
	pool *pgxpool.Pool
}

// NewStockRepository creates a new stock repository
func NewStockRepository(pool *pgxpool.Pool) *StockRepository {
	return &StockRepository{pool: pool}
}

const stockColumns = `id::text, code, name, market, industry, sector, listed_date, status, created_at, updated_at`

func scanStock(row pgx.Row) (*contracts.Stock, error) {
	var s contracts.Stock
	err := row.Scan(&s.ID, &s.Code, &s.Name, &s.Market, &s.Industry, &s.Sector,
		&s.ListedDate, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns one page of stocks matching q, ordered by code, plus the total match count
func (r *StockRepository) List(ctx context.Context, q contracts.StockQuery) ([]*contracts.Stock, int, error) {
	where := []string{"TRUE"}
	args := []interface{}{}

	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		where = append(where, fmt.Sprintf("(code ILIKE $%d OR name ILIKE $%d)", len(args), len(args)))
	}
	if q.Market != "" {
		args = append(args, q.Market)
		where = append(where, fmt.Sprintf("market = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM stocks WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count stocks: %w", err)
	}

	args = append(args, q.PageSize, q.Offset())
	query := fmt.Sprintf(`SELECT %s FROM stocks WHERE %s ORDER BY code LIMIT $%d OFFSET $%d`,
		stockColumns, cond, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query stocks: %w", err)
	}
	defer rows.Close()

	stocks := make([]*contracts.Stock, 0, q.PageSize)
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan stock: %w", err)
		}
		stocks = append(stocks, s)
	}
	return stocks, total, rows.Err()
}

// GetByCode returns the stock with code or contracts.ErrNotFound
func (r *StockRepository) GetByCode(ctx context.Context, code string) (*contracts.Stock, error) {
	s, err := scanStock(r.pool.QueryRow(ctx,
		`SELECT `+stockColumns+` FROM stocks WHERE code = $1`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get stock %s: %w", code, err)
	}
	return s, nil
}

// ListActive returns every active stock ordered by code
func (r *StockRepository) ListActive(ctx context.Context) ([]*contracts.Stock, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+stockColumns+` FROM stocks WHERE status = $1 ORDER BY code`, contracts.StockStatusActive)
	if err != nil {
		return nil, fmt.Errorf("query active stocks: %w", err)
	}
	defer rows.Close()

	var stocks []*contracts.Stock
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		stocks = append(stocks, s)
	}
	return stocks, rows.Err()
}

// UpsertBatch inserts or updates stocks by code in one transaction
func (r *StockRepository) UpsertBatch(ctx context.Context, stocks []*contracts.Stock) (int, error) {
	if len(stocks) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO stocks (code, name, market, industry, sector, listed_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			market = EXCLUDED.market,
			industry = EXCLUDED.industry,
			sector = EXCLUDED.sector,
			listed_date = EXCLUDED.listed_date,
			status = EXCLUDED.status,
			updated_at = NOW()
	`

	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, s := range stocks {
			status := s.Status
			if status == "" {
				status = contracts.StockStatusActive
			}
			batch.Queue(query, s.Code, s.Name, s.Market, s.Industry, s.Sector, s.ListedDate, status)
		}
		return sendBatch(ctx, tx, batch)
	})
	if err != nil {
		return 0, fmt.Errorf("upsert stocks: %w", err)
	}
	return len(stocks), nil
}
