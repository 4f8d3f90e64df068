package contracts

import (
	"context"
	"time"
)

// ⭐ SSOT: Repository 인터페이스 정의는 여기서만
// 구현은 internal/data (pgx). 서비스/핸들러는 인터페이스만 의존한다.

// StockRepository manages the stock catalog
type StockRepository interface {
	List(ctx context.Context, q StockQuery) ([]*Stock, int, error)
	GetByCode(ctx context.Context, code string) (*Stock, error)
	ListActive(ctx context.Context) ([]*Stock, error)
	UpsertBatch(ctx context.Context, stocks []*Stock) (int, error)
}

// DailyRepository manages daily bars
type DailyRepository interface {
	// Range returns bars newest first; nil bounds are open
	Range(ctx context.Context, stockID string, from, to *time.Time) ([]*DailyBar, error)
	Latest(ctx context.Context, stockID string) (*DailyBar, error)
	UpsertBatch(ctx context.Context, bars []*DailyBar) (int, error)
}

// FinancialRepository manages periodic reports
type FinancialRepository interface {
	// ListByStock returns reports newest first
	ListByStock(ctx context.Context, stockID string) ([]*Financial, error)
	UpsertBatch(ctx context.Context, financials []*Financial) (int, error)
}

// DividendRepository manages cash dividends
type DividendRepository interface {
	ListByStock(ctx context.Context, stockID string) ([]*Dividend, error)
	UpsertBatch(ctx context.Context, dividends []*Dividend) (int, error)
}

// SnapshotRepository manages computed indicator snapshots
type SnapshotRepository interface {
	GetByCode(ctx context.Context, code string) (*IndicatorSnapshot, error)
	// ListCandidates returns snapshots; empty filters mean no restriction
	ListCandidates(ctx context.Context, markets, industries []string) ([]*IndicatorSnapshot, error)
	Upsert(ctx context.Context, s *IndicatorSnapshot) error
}

// AlertRepository manages user alerts
type AlertRepository interface {
	ListByUser(ctx context.Context, userID string) ([]*Alert, error)
	Get(ctx context.Context, userID, id string) (*Alert, error)
	Create(ctx context.Context, a *Alert) error
	Update(ctx context.Context, userID, id string, patch AlertPatch) (*Alert, error)
	Delete(ctx context.Context, userID, id string) error
	ListEnabled(ctx context.Context) ([]*Alert, error)
	MarkTriggered(ctx context.Context, id string, at time.Time) error
}

// ArticleRepository manages articles
type ArticleRepository interface {
	List(ctx context.Context, q ArticleQuery) ([]*Article, int, error)
	Search(ctx context.Context, q ArticleQuery) ([]*Article, int, error)
	Get(ctx context.Context, id string) (*Article, error)
	IncrementViews(ctx context.Context, id string) error
	Create(ctx context.Context, a *Article) error
}

// ChatRepository stores AI chat exchanges
type ChatRepository interface {
	Save(ctx context.Context, e *ChatExchange) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*ChatExchange, error)
}
