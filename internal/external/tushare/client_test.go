package tushare

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/valuescope/backend/pkg/config"
	"github.com/wonny/valuescope/backend/pkg/httputil"
	"github.com/wonny/valuescope/backend/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	log := logger.Nop()
	httpClient := httputil.New(nil, log).DisableRetry()
	return NewClient(httpClient, config.TushareConfig{
		Token:      "test-token",
		BaseURL:    server.URL,
		RatePerMin: 6000,
	}, log)
}

func TestClient_DecodesRowsByFieldName(t *testing.T) {
	var got request
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		// fields deliberately out of request order
		_, _ = w.Write([]byte(`{"code":0,"msg":"","data":{
			"fields":["pb","ts_code","trade_date","total_mv","pe_ttm","dv_ratio"],
			"items":[[0.62,"600036.SH","20240628",8123456.5,null,5.41]]}}`))
	})

	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	rows, err := client.DailyBasic(context.Background(), "600036.SH", from, to)
	require.NoError(t, err)

	assert.Equal(t, "daily_basic", got.APIName)
	assert.Equal(t, "test-token", got.Token)
	assert.Equal(t, "600036.SH", got.Params["ts_code"])
	assert.Equal(t, "20240601", got.Params["start_date"])
	assert.Equal(t, "20240630", got.Params["end_date"])

	require.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, "600036.SH", row.TSCode)
	assert.Equal(t, "20240628", row.TradeDate)
	require.NotNil(t, row.PB)
	assert.InDelta(t, 0.62, *row.PB, 1e-9)
	assert.Nil(t, row.PETTM)
	assert.InDelta(t, 5.41, *row.DvRatio, 1e-9)
	assert.InDelta(t, 8123456.5, *row.TotalMV, 1e-9)
}

func TestClient_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":40203,"msg":"抱歉，您每分钟最多访问该接口200次","data":null}`))
	})

	_, err := client.StockBasic(context.Background(), "L")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 40203, apiErr.Code)
	assert.Equal(t, "stock_basic", apiErr.API)
}

func TestClient_HTTPStatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Income(context.Background(), "000001.SZ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestClient_Dividend(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":0,"msg":"","data":{
			"fields":["ts_code","end_date","ann_date","div_proc","cash_div_tax","ex_date","pay_date"],
			"items":[
				["600036.SH","20231231","20240322","实施",1.972,"20240711","20240711"],
				["600036.SH","20241231","20250325","预案",2.0,null,null]]}}`))
	})

	rows, err := client.Dividend(context.Background(), "600036.SH")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "实施", rows[0].DivProc)
	assert.InDelta(t, 1.972, rows[0].CashDivTax, 1e-9)
	assert.Equal(t, "20240711", rows[0].ExDate)
	assert.Equal(t, "", rows[1].ExDate)
}

func TestClient_Balancesheet(t *testing.T) {
	var got request
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"code":0,"msg":"","data":{
			"fields":["ts_code","end_date","total_assets","total_liab","total_hldr_eqy_exc_min_int"],
			"items":[["600036.SH","20231231",1.1028e13,9.92e12,1.088e12],["600036.SH","20230930",null,null,1.05e12]]}}`))
	})

	rows, err := client.Balancesheet(context.Background(), "600036.SH")
	require.NoError(t, err)

	assert.Equal(t, "balancesheet", got.APIName)
	assert.Contains(t, got.Fields, "total_hldr_eqy_exc_min_int")
	require.Len(t, rows, 2)
	assert.Equal(t, "20231231", rows[0].EndDate)
	assert.InDelta(t, 1.1028e13, *rows[0].TotalAssets, 1)
	assert.InDelta(t, 9.92e12, *rows[0].TotalLiabilities, 1)
	assert.InDelta(t, 1.088e12, *rows[0].Equity, 1)
	assert.Nil(t, rows[1].TotalAssets)
	assert.InDelta(t, 1.05e12, *rows[1].Equity, 1)
}

func TestTSCode(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"600036", "600036.SH"},
		{"900901", "900901.SH"},
		{"000001", "000001.SZ"},
		{"300750", "300750.SZ"},
		{"830799", "830799.BJ"},
		{"430047", "430047.BJ"},
		{"600036.SH", "600036.SH"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, TSCode(tt.code))
			assert.Equal(t, tt.code[:6], Symbol(TSCode(tt.code)))
		})
	}
}

func TestRow_String(t *testing.T) {
	r := Row{"s": "abc", "n": 20240102.0, "null": nil}
	assert.Equal(t, "abc", r.String("s"))
	assert.Equal(t, "20240102", r.String("n"))
	assert.Equal(t, "", r.String("null"))
	assert.Equal(t, "", r.String("missing"))

	_, ok := r.Float("null")
	assert.False(t, ok)
}
