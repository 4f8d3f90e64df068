package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wonny/valuescope/backend/internal/article"
	"github.com/wonny/valuescope/backend/internal/contracts"
	"github.com/wonny/valuescope/backend/pkg/logger"
)

// ArticleService is the article surface used by the handler
type ArticleService interface {
	List(ctx context.Context, q contracts.ArticleQuery) ([]*contracts.Article, int, error)
	Search(ctx context.Context, q contracts.ArticleQuery) ([]*contracts.Article, int, error)
	Get(ctx context.Context, id string) (*contracts.Article, error)
	Create(ctx context.Context, req article.CreateRequest) (*contracts.Article, error)
	Import(ctx context.Context, req article.ImportRequest) (*contracts.Article, error)
}

// ArticleHandler handles article endpoints
type ArticleHandler struct {
	service ArticleService
	logger  *logger.Logger
}

// NewArticleHandler creates a new article handler
func NewArticleHandler(service ArticleService, log *logger.Logger) *ArticleHandler {
	return &ArticleHandler{service: service, logger: log}
}

func articleQuery(r *http.Request) (contracts.ArticleQuery, error) {
	page, pageSize, err := parsePaging(r)
	if err != nil {
		return contracts.ArticleQuery{}, err
	}
	return contracts.ArticleQuery{
		Search:   strings.TrimSpace(r.URL.Query().Get("q")),
		Series:   r.URL.Query().Get("series"),
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// List returns a page of articles, filtered by q and series
// GET /api/v1/articles
func (h *ArticleHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := articleQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.service.List(r.Context(), q)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, PageResponse{Data: items, Total: total, Page: q.Page, PageSize: q.PageSize})
}

// Search returns articles matching q, title matches first
// GET /api/v1/articles/search?q=
func (h *ArticleHandler) Search(w http.ResponseWriter, r *http.Request) {
	q, err := articleQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.service.Search(r.Context(), q)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, PageResponse{Data: items, Total: total, Page: q.Page, PageSize: q.PageSize})
}

// Get returns one article with rendered HTML
// GET /api/v1/articles/{id}
func (h *ArticleHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

// Create stores a new article
// POST /api/v1/articles
func (h *ArticleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req article.CreateRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	a, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, a)
}

// Import fetches a web page and stores it as an article
// POST /api/v1/articles/import
func (h *ArticleHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req article.ImportRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	a, err := h.service.Import(r.Context(), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, a)
}

func (h *ArticleHandler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, article.ErrInvalidRequest):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, article.ErrFetchFailed):
		respondError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, contracts.ErrNotFound):
		respondError(w, http.StatusNotFound, "article not found")
	default:
		h.logger.WithError(err).Error("Article request failed")
		respondError(w, http.StatusInternalServerError, "article request failed")
	}
}
