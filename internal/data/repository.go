package data

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/valuescope/backend/internal/contracts"
)

// Repositories bundles every pgx-backed repository on one pool
type Repositories struct {
	Stocks     *StockRepository
	Daily      *DailyRepository
	Financials *FinancialRepository
	Dividends  *DividendRepository
	Snapshots  *SnapshotRepository
	Alerts     *AlertRepository
	Articles   *ArticleRepository
	Chats      *ChatRepository
}

// NewRepositories creates all repositories on pool
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Stocks:     NewStockRepository(pool),
		Daily:      NewDailyRepository(pool),
		Financials: NewFinancialRepository(pool),
		Dividends:  NewDividendRepository(pool),
		Snapshots:  NewSnapshotRepository(pool),
		Alerts:     NewAlertRepository(pool),
		Articles:   NewArticleRepository(pool),
		Chats:      NewChatRepository(pool),
	}
}

var (
	_ contracts.StockRepository     = (*StockRepository)(nil)
	_ contracts.DailyRepository     = (*DailyRepository)(nil)
	_ contracts.FinancialRepository = (*FinancialRepository)(nil)
	_ contracts.DividendRepository  = (*DividendRepository)(nil)
	_ contracts.SnapshotRepository  = (*SnapshotRepository)(nil)
	_ contracts.AlertRepository     = (*AlertRepository)(nil)
	_ contracts.ArticleRepository   = (*ArticleRepository)(nil)
	_ contracts.ChatRepository      = (*ChatRepository)(nil)
)

// sendBatch executes every queued statement and reports the first failure
func sendBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch) error {
	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("batch statement %d: %w", i, err)
		}
	}
	return br.Close()
}
