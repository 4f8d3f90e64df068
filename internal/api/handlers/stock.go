package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wonny/valuescope/backend/internal/contracts"
	"github.com/wonny/valuescope/backend/pkg/logger"
	"github.com/wonny/valuescope/backend/pkg/redis"
)

// StockHandler handles stock catalog and indicator endpoints
// ⭐ SSOT: 종목 데이터 API 핸들러는 이 구조체에서만
type StockHandler struct {
	stocks     contracts.StockRepository
	daily      contracts.DailyRepository
	financials contracts.FinancialRepository
	dividends  contracts.DividendRepository
	snapshots  contracts.SnapshotRepository
	cache      *redis.Cache
	logger     *logger.Logger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(
	stocks contracts.StockRepository,
	daily contracts.DailyRepository,
	financials contracts.FinancialRepository,
	dividends contracts.DividendRepository,
	snapshots contracts.SnapshotRepository,
	cache *redis.Cache,
	log *logger.Logger,
) *StockHandler {
	return &StockHandler{
		stocks:     stocks,
		daily:      daily,
		financials: financials,
		dividends:  dividends,
		snapshots:  snapshots,
		cache:      cache,
		logger:     log,
	}
}

// List returns a page of the catalog
// GET /api/v1/stocks?q=&market=&page=1&page_size=20
func (h *StockHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize, err := parsePaging(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	q := contracts.StockQuery{
		Search:   strings.TrimSpace(r.URL.Query().Get("q")),
		Market:   r.URL.Query().Get("market"),
		Page:     page,
		PageSize: pageSize,
	}

	stocks, total, err := h.stocks.List(r.Context(), q)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list stocks")
		respondError(w, http.StatusInternalServerError, "failed to list stocks")
		return
	}
	if stocks == nil {
		stocks = []*contracts.Stock{}
	}

	respondJSON(w, http.StatusOK, PageResponse{Data: stocks, Total: total, Page: page, PageSize: pageSize})
}

// lookup resolves {code} or writes the error response
func (h *StockHandler) lookup(w http.ResponseWriter, r *http.Request) (*contracts.Stock, bool) {
	ctx := r.Context()
	code := mux.Vars(r)["code"]

	var stock contracts.Stock
	err := h.cache.GetOrSet(ctx, redis.StockKey(code), &stock, redis.TTLLong, func() (interface{}, error) {
		return h.stocks.GetByCode(ctx, code)
	})
	if errors.Is(err, contracts.ErrNotFound) {
		respondError(w, http.StatusNotFound, "stock not found")
		return nil, false
	}
	if err != nil {
		h.logger.WithError(err).WithField("code", code).Error("Failed to get stock")
		respondError(w, http.StatusInternalServerError, "failed to get stock")
		return nil, false
	}
	return &stock, true
}

// Get returns one stock
// GET /api/v1/stocks/{code}
func (h *StockHandler) Get(w http.ResponseWriter, r *http.Request) {
	stock, ok := h.lookup(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, stock)
}

// Daily returns bars newest first
// GET /api/v1/stocks/{code}/daily?start=2024-01-01&end=2024-06-30
func (h *StockHandler) Daily(w http.ResponseWriter, r *http.Request) {
	from, err := parseDate(r, "start", "start_date")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := parseDate(r, "end", "end_date")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if from != nil && to != nil && from.After(*to) {
		respondError(w, http.StatusBadRequest, "start must not be after end")
		return
	}

	stock, ok := h.lookup(w, r)
	if !ok {
		return
	}

	bars, err := h.daily.Range(r.Context(), stock.ID, from, to)
	if err != nil {
		h.logger.WithError(err).WithField("code", stock.Code).Error("Failed to get daily bars")
		respondError(w, http.StatusInternalServerError, "failed to get daily data")
		return
	}
	if bars == nil {
		bars = []*contracts.DailyBar{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"data": bars})
}

// Indicators returns the latest snapshot, cached for redis.TTLMedium
// GET /api/v1/stocks/{code}/indicators
func (h *StockHandler) Indicators(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := mux.Vars(r)["code"]

	var snap contracts.IndicatorSnapshot
	err := h.cache.GetOrSet(ctx, redis.IndicatorKey(code), &snap, redis.TTLMedium, func() (interface{}, error) {
		return h.snapshots.GetByCode(ctx, code)
	})
	if errors.Is(err, contracts.ErrNotFound) {
		// distinguish an unknown code from a stock not scored yet
		if _, ok := h.lookup(w, r); ok {
			respondError(w, http.StatusNotFound, "indicators not available")
		}
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("code", code).Error("Failed to get indicators")
		respondError(w, http.StatusInternalServerError, "failed to get indicators")
		return
	}

	respondJSON(w, http.StatusOK, snap)
}

// Financials returns reports newest first
// GET /api/v1/stocks/{code}/financials
func (h *StockHandler) Financials(w http.ResponseWriter, r *http.Request) {
	stock, ok := h.lookup(w, r)
	if !ok {
		return
	}

	reports, err := h.financials.ListByStock(r.Context(), stock.ID)
	if err != nil {
		h.logger.WithError(err).WithField("code", stock.Code).Error("Failed to get financials")
		respondError(w, http.StatusInternalServerError, "failed to get financials")
		return
	}
	if reports == nil {
		reports = []*contracts.Financial{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"data": reports})
}

// Dividends returns implemented dividends, latest ex-date first
// GET /api/v1/stocks/{code}/dividends
func (h *StockHandler) Dividends(w http.ResponseWriter, r *http.Request) {
	stock, ok := h.lookup(w, r)
	if !ok {
		return
	}

	dividends, err := h.dividends.ListByStock(r.Context(), stock.ID)
	if err != nil {
		h.logger.WithError(err).WithField("code", stock.Code).Error("Failed to get dividends")
		respondError(w, http.StatusInternalServerError, "failed to get dividends")
		return
	}
	if dividends == nil {
		dividends = []*contracts.Dividend{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"data": dividends})
}
