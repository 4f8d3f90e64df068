package tushare

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/valuescope/backend/pkg/config"
	"github.com/wonny/valuescope/backend/pkg/httputil"
	"github.com/wonny/valuescope/backend/pkg/logger"
)

// Client handles communication with the Tushare Pro HTTP API
// ⭐ SSOT: Tushare API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	token      string
	baseURL    string
	limiter    *rate.Limiter
}

// NewClient creates a new Tushare client. Requests are paced to cfg.RatePerMin.
func NewClient(httpClient *httputil.Client, cfg config.TushareConfig, log *logger.Logger) *Client {
	perMin := cfg.RatePerMin
	if perMin < 1 {
		perMin = 1
	}
	burst := perMin / 60
	if burst < 1 {
		burst = 1
	}

	return &Client{
		httpClient: httpClient,
		logger:     log,
		token:      cfg.Token,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMin)), burst),
	}
}

// APIError is a non-zero code returned by Tushare
type APIError struct {
	API  string
	Code int
	Msg  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tushare %s: code %d: %s", e.API, e.Code, e.Msg)
}

type request struct {
	APIName string            `json:"api_name"`
	Token   string            `json:"token"`
	Params  map[string]string `json:"params"`
	Fields  string            `json:"fields,omitempty"`
}

type response struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data *struct {
		Fields []string        `json:"fields"`
		Items  [][]interface{} `json:"items"`
	} `json:"data"`
}

// Row is one result row keyed by field name
type Row map[string]interface{}

// call invokes apiName and returns its rows keyed by field name
func (c *Client) call(ctx context.Context, apiName string, params map[string]string, fields []string) ([]Row, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	if params == nil {
		params = map[string]string{}
	}
	body := request{
		APIName: apiName,
		Token:   c.token,
		Params:  params,
		Fields:  strings.Join(fields, ","),
	}

	resp, err := c.httpClient.PostJSON(ctx, c.baseURL, body)
	if err != nil {
		return nil, fmt.Errorf("tushare %s: %w", apiName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("tushare %s: unexpected status code: %d", apiName, resp.StatusCode)
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("tushare %s: decode response: %w", apiName, err)
	}
	if out.Code != 0 {
		return nil, &APIError{API: apiName, Code: out.Code, Msg: out.Msg}
	}
	if out.Data == nil {
		return nil, nil
	}

	rows := make([]Row, 0, len(out.Data.Items))
	for _, item := range out.Data.Items {
		row := make(Row, len(out.Data.Fields))
		for i, field := range out.Data.Fields {
			if i < len(item) {
				row[field] = item[i]
			}
		}
		rows = append(rows, row)
	}

	c.logger.WithFields(map[string]interface{}{
		"api":  apiName,
		"rows": len(rows),
	}).Debug("Tushare call completed")

	return rows, nil
}

// String returns field as a string; missing or null yields ""
func (r Row) String(field string) string {
	switch v := r[field].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// Float returns field as a float; ok is false for missing, null or non-numeric values
func (r Row) Float(field string) (float64, bool) {
	switch v := r[field].(type) {
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// FloatPtr is Float as a nullable pointer
func (r Row) FloatPtr(field string) *float64 {
	v, ok := r.Float(field)
	if !ok {
		return nil
	}
	return &v
}
