// Package article stores curated long-form articles, renders them and imports them from the web.
package article

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/valuescope/backend/internal/contracts"
	"github.com/wonny/valuescope/backend/pkg/validation"
)

// ErrInvalidRequest wraps request validation failures
var ErrInvalidRequest = errors.New("invalid article request")

// CreateRequest is the body of POST /articles
type CreateRequest struct {
	Title       string     `json:"title" validate:"required,max=500"`
	Content     string     `json:"content" validate:"required"`
	Summary     string     `json:"summary"`
	Author      string     `json:"author" validate:"max=100"`
	SourceURL   string     `json:"source_url" validate:"omitempty,url"`
	PublishedAt *time.Time `json:"published_at"`
	Series      string     `json:"series" validate:"max=100"`
}

// ImportRequest is the body of POST /articles/import
type ImportRequest struct {
	URL    string `json:"url" validate:"required,http_url"`
	Series string `json:"series" validate:"max=100"`
}

// Fetcher retrieves an article from a URL. *Importer implements it.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (*contracts.Article, error)
}

// Service manages articles
type Service struct {
	repo     contracts.ArticleRepository
	renderer *Renderer
	fetcher  Fetcher
	now      func() time.Time
}

// NewService creates a new article service
func NewService(repo contracts.ArticleRepository, renderer *Renderer, fetcher Fetcher) *Service {
	return &Service{repo: repo, renderer: renderer, fetcher: fetcher, now: time.Now}
}

// List returns a page of articles, or search results when q.Search is set
func (s *Service) List(ctx context.Context, q contracts.ArticleQuery) ([]*contracts.Article, int, error) {
	var (
		items []*contracts.Article
		total int
		err   error
	)
	if q.Search != "" {
		items, total, err = s.repo.Search(ctx, q)
	} else {
		items, total, err = s.repo.List(ctx, q)
	}
	if err != nil {
		return nil, 0, err
	}
	if items == nil {
		items = []*contracts.Article{}
	}
	return items, total, nil
}

// Search matches q.Search, which is required
func (s *Service) Search(ctx context.Context, q contracts.ArticleQuery) ([]*contracts.Article, int, error) {
	if q.Search == "" {
		return nil, 0, fmt.Errorf("%w: q is required", ErrInvalidRequest)
	}
	return s.List(ctx, q)
}

// Get returns article id rendered to HTML and counts the view
func (s *Service) Get(ctx context.Context, id string) (*contracts.Article, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, contracts.ErrNotFound
	}
	if err := s.repo.IncrementViews(ctx, id); err != nil {
		return nil, err
	}

	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	a.ContentHTML, err = s.renderer.Render(a.Content)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create validates req and stores a new article
func (s *Service) Create(ctx context.Context, req CreateRequest) (*contracts.Article, error) {
	if err := validation.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	summary := req.Summary
	if summary == "" {
		summary = Summarize(req.Content, SummaryRunes)
	}

	return s.save(ctx, &contracts.Article{
		Title:       req.Title,
		Content:     req.Content,
		Summary:     summary,
		Author:      req.Author,
		SourceURL:   req.SourceURL,
		PublishedAt: req.PublishedAt,
		Series:      req.Series,
	})
}

// Import fetches req.URL and stores the extracted article
func (s *Service) Import(ctx context.Context, req ImportRequest) (*contracts.Article, error) {
	if err := validation.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	a, err := s.fetcher.Fetch(ctx, req.URL)
	if err != nil {
		return nil, err
	}
	a.Series = req.Series
	return s.save(ctx, a)
}

func (s *Service) save(ctx context.Context, a *contracts.Article) (*contracts.Article, error) {
	now := s.now()
	a.ID = uuid.NewString()
	a.CreatedAt = now
	a.UpdatedAt = now
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}
