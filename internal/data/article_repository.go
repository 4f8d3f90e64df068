package data

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/valuescope/backend/internal/contracts"
)

// ArticleRepository implements contracts.ArticleRepository
type ArticleRepository struct {
	pool *pgxpool.Pool
}

// NewArticleRepository creates a new article repository
func NewArticleRepository(pool *pgxpool.Pool) *ArticleRepository {
	return &ArticleRepository{pool: pool}
}

const articleColumns = `id::text, title, content, summary, author, source_url, published_at,
	series, view_count, created_at, updated_at`

func (r *ArticleRepository) page(ctx context.Context, where, order string, q contracts.ArticleQuery, args ...interface{}) ([]*contracts.Article, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM articles WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}

	n := len(args)
	args = append(args, q.PageSize, q.Offset())
	query := fmt.Sprintf(`SELECT %s FROM articles WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		articleColumns, where, order, n+1, n+2)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	out := make([]*contracts.Article, 0, q.PageSize)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan article: %w", err)
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func scanArticle(row pgx.Row) (*contracts.Article, error) {
	var a contracts.Article
	err := row.Scan(&a.ID, &a.Title, &a.Content, &a.Summary, &a.Author, &a.SourceURL,
		&a.PublishedAt, &a.Series, &a.ViewCount, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// List returns articles newest first, optionally restricted to one series
func (r *ArticleRepository) List(ctx context.Context, q contracts.ArticleQuery) ([]*contracts.Article, int, error) {
	return r.page(ctx,
		`($1::text = '' OR series = $1)`,
		`published_at DESC NULLS LAST, created_at DESC`,
		q, q.Series)
}

// Search matches q.Search against title, summary and content; title hits rank first
func (r *ArticleRepository) Search(ctx context.Context, q contracts.ArticleQuery) ([]*contracts.Article, int, error) {
	pattern := "%" + q.Search + "%"
	return r.page(ctx,
		`(title ILIKE $1 OR summary ILIKE $1 OR content ILIKE $1) AND ($2::text = '' OR series = $2)`,
		`(title ILIKE $1) DESC, published_at DESC NULLS LAST, created_at DESC`,
		q, pattern, q.Series)
}

// Get returns article id or contracts.ErrNotFound
func (r *ArticleRepository) Get(ctx context.Context, id string) (*contracts.Article, error) {
	a, err := scanArticle(r.pool.QueryRow(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE id = $1::uuid`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get article %s: %w", id, err)
	}
	return a, nil
}

// IncrementViews bumps the view counter of article id
func (r *ArticleRepository) IncrementViews(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE articles SET view_count = view_count + 1 WHERE id = $1::uuid`, id)
	if err != nil {
		return fmt.Errorf("increment views %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return contracts.ErrNotFound
	}
	return nil
}

// Create inserts a
func (r *ArticleRepository) Create(ctx context.Context, a *contracts.Article) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO articles (id, title, content, summary, author, source_url, published_at,
			series, view_count, created_at, updated_at)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		a.ID, a.Title, a.Content, a.Summary, a.Author, a.SourceURL, a.PublishedAt,
		a.Series, a.ViewCount, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create article: %w", err)
	}
	return nil
}
