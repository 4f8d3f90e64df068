package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// UserHeader carries the caller's identity
const UserHeader = "X-User-ID"

// Paging bounds
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

const maxBodyBytes = 1 << 20

const dateLayout = "2006-01-02"

// errorResponse is the body of every failed request
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// PageResponse is the envelope of paginated listings
type PageResponse struct {
	Data     interface{} `json:"data"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Success: false, Error: message})
}

// decodeJSON reads a JSON body into dst. An empty body is an error unless allowEmpty.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, allowEmpty bool) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer body.Close()

	err := json.NewDecoder(body).Decode(dst)
	if errors.Is(err, io.EOF) {
		if allowEmpty {
			return nil
		}
		return errors.New("request body is required")
	}
	if err != nil {
		return fmt.Errorf("invalid JSON body: %v", err)
	}
	return nil
}

// parsePaging reads page (>= 1, default 1) and page_size (1..100, default 20)
func parsePaging(r *http.Request) (page, pageSize int, err error) {
	page, pageSize = 1, DefaultPageSize

	if v := r.URL.Query().Get("page"); v != "" {
		page, err = strconv.Atoi(v)
		if err != nil || page < 1 {
			return 0, 0, errors.New("page must be an integer >= 1")
		}
	}
	if v := r.URL.Query().Get("page_size"); v != "" {
		pageSize, err = strconv.Atoi(v)
		if err != nil || pageSize < 1 || pageSize > MaxPageSize {
			return 0, 0, fmt.Errorf("page_size must be between 1 and %d", MaxPageSize)
		}
	}
	return page, pageSize, nil
}

// parseDate reads an optional YYYY-MM-DD query parameter, trying each name in order
func parseDate(r *http.Request, names ...string) (*time.Time, error) {
	for _, name := range names {
		v := r.URL.Query().Get(name)
		if v == "" {
			continue
		}
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return nil, fmt.Errorf("%s must be YYYY-MM-DD", name)
		}
		return &t, nil
	}
	return nil, nil
}

// userID returns the caller's identity, or writes 401 and returns false
func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get(UserHeader)
	if _, err := uuid.Parse(id); err != nil {
		respondError(w, http.StatusUnauthorized, "missing or invalid "+UserHeader+" header")
		return "", false
	}
	return id, true
}
