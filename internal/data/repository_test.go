package data

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/valuescope/backend/internal/contracts"
	"github.com/wonny/valuescope/backend/pkg/config"
	"github.com/wonny/valuescope/backend/pkg/database"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	db, err := database.New(cfg)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	_, err = db.Migrate(context.Background())
	require.NoError(t, err)
	return db
}

// testCode returns a stock code unlikely to collide with real data
func testCode() string {
	return fmt.Sprintf("T%05d", time.Now().UnixNano()%100000)
}

func seedStock(t *testing.T, db *database.DB) *contracts.Stock {
	t.Helper()
	ctx := context.Background()
	stocks := NewStockRepository(db.Pool)

	code := testCode()
	n, err := stocks.UpsertBatch(ctx, []*contracts.Stock{{
		Code: code, Name: "测试银行", Market: "A 股", Industry: "银行",
	}})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	s, err := stocks.GetByCode(ctx, code)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = db.Pool.Exec(context.Background(), `DELETE FROM stocks WHERE code = $1`, code)
	})
	return s
}

func f(v float64) *float64 { return &v }

func TestStockRepository_UpsertAndGet(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewStockRepository(db.Pool)

	s := seedStock(t, db)
	assert.Equal(t, contracts.StockStatusActive, s.Status)
	assert.NotEmpty(t, s.ID)

	// second upsert renames in place
	_, err := repo.UpsertBatch(ctx, []*contracts.Stock{{Code: s.Code, Name: "改名银行", Market: "A 股", Industry: "银行"}})
	require.NoError(t, err)

	got, err := repo.GetByCode(ctx, s.Code)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, "改名银行", got.Name)

	list, total, err := repo.List(ctx, contracts.StockQuery{Search: s.Code, Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)

	_, err = repo.GetByCode(ctx, "NOPE00")
	assert.ErrorIs(t, err, contracts.ErrNotFound)
}

func TestDailyRepository_RangeNewestFirst(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	s := seedStock(t, db)
	repo := NewDailyRepository(db.Pool)

	d1 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	_, err := repo.UpsertBatch(ctx, []*contracts.DailyBar{
		{StockID: s.ID, Date: d1, Close: f(10)},
		{StockID: s.ID, Date: d2, Close: f(11), PETTM: f(6.5)},
	})
	require.NoError(t, err)

	bars, err := repo.Range(ctx, s.ID, nil, nil)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.True(t, bars[0].Date.Equal(d2))
	assert.InDelta(t, 11.0, *bars[0].Close, 1e-9)
	assert.Nil(t, bars[1].PETTM)

	bars, err = repo.Range(ctx, s.ID, &d2, nil)
	require.NoError(t, err)
	assert.Len(t, bars, 1)

	latest, err := repo.Latest(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, latest.Date.Equal(d2))
}

func TestDailyRepository_LatestSkipsUnpricedBars(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	s := seedStock(t, db)
	repo := NewDailyRepository(db.Pool)

	priced := time.Date(2024, 6, 27, 0, 0, 0, 0, time.UTC)
	_, err := repo.UpsertBatch(ctx, []*contracts.DailyBar{
		{StockID: s.ID, Date: priced, Close: f(35.2)},
		{StockID: s.ID, Date: priced.AddDate(0, 0, 1), PETTM: f(6.3)},
	})
	require.NoError(t, err)

	latest, err := repo.Latest(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, latest.Date.Equal(priced))
	require.NotNil(t, latest.Close)
	assert.InDelta(t, 35.2, *latest.Close, 1e-9)
}

func TestSnapshotRepository_ListCandidates(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	s := seedStock(t, db)
	repo := NewSnapshotRepository(db.Pool)

	err := repo.Upsert(ctx, &contracts.IndicatorSnapshot{
		StockID: s.ID, Code: s.Code, AsOf: time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC),
		DividendYield: f(5.2), ValuationStatus: "undervalued", ConsecutiveDividendYears: 4,
	})
	require.NoError(t, err)

	got, err := repo.GetByCode(ctx, s.Code)
	require.NoError(t, err)
	assert.Equal(t, "银行", got.Industry)
	assert.InDelta(t, 5.2, *got.DividendYield, 1e-9)
	assert.Nil(t, got.PETTM)
	assert.Equal(t, 4, got.ConsecutiveDividendYears)

	list, err := repo.ListCandidates(ctx, nil, []string{"银行"})
	require.NoError(t, err)
	found := false
	for _, c := range list {
		if c.Code == s.Code {
			found = true
		}
	}
	assert.True(t, found)

	list, err = repo.ListCandidates(ctx, nil, []string{"不存在行业"})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAlertRepository_Lifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	s := seedStock(t, db)
	repo := NewAlertRepository(db.Pool)

	userID := uuid.NewString()
	a := &contracts.Alert{
		ID: uuid.NewString(), UserID: userID, StockID: s.ID, StockCode: s.Code,
		AlertType: contracts.AlertDividend, Condition: contracts.ConditionGT,
		Threshold: decimal.RequireFromString("5.5"), Enabled: true,
		NotifyChannel: contracts.ChannelWebsocket, CreatedAt: time.Now(),
	}
	require.NoError(t, repo.Create(ctx, a))

	got, err := repo.Get(ctx, userID, a.ID)
	require.NoError(t, err)
	assert.True(t, got.Threshold.Equal(decimal.RequireFromString("5.5")))
	assert.Equal(t, s.Code, got.StockCode)

	// other users cannot see it
	_, err = repo.Get(ctx, uuid.NewString(), a.ID)
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	off := false
	updated, err := repo.Update(ctx, userID, a.ID, contracts.AlertPatch{Enabled: &off})
	require.NoError(t, err)
	assert.False(t, updated.Enabled)
	assert.True(t, updated.Threshold.Equal(a.Threshold))

	now := time.Now()
	require.NoError(t, repo.MarkTriggered(ctx, a.ID, now))

	require.NoError(t, repo.Delete(ctx, userID, a.ID))
	assert.ErrorIs(t, repo.Delete(ctx, userID, a.ID), contracts.ErrNotFound)
}

func TestArticleRepository_SearchTitleFirst(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewArticleRepository(db.Pool)

	marker := testCode()
	now := time.Now()
	inBody := &contracts.Article{ID: uuid.NewString(), Title: "估值随笔", Content: "正文提到 " + marker,
		CreatedAt: now, UpdatedAt: now}
	inTitle := &contracts.Article{ID: uuid.NewString(), Title: "关于 " + marker, Content: "正文",
		CreatedAt: now.Add(-time.Hour), UpdatedAt: now}
	require.NoError(t, repo.Create(ctx, inBody))
	require.NoError(t, repo.Create(ctx, inTitle))
	t.Cleanup(func() {
		_, _ = db.Pool.Exec(context.Background(), `DELETE FROM articles WHERE id = ANY($1::uuid[])`,
			[]string{inBody.ID, inTitle.ID})
	})

	list, total, err := repo.Search(ctx, contracts.ArticleQuery{Search: marker, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, list, 2)
	assert.Equal(t, inTitle.ID, list[0].ID)

	require.NoError(t, repo.IncrementViews(ctx, inBody.ID))
	got, err := repo.Get(ctx, inBody.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ViewCount)
}

func TestChatRepository_SaveAndList(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewChatRepository(db.Pool)

	userID := uuid.NewString()
	t.Cleanup(func() {
		_, _ = db.Pool.Exec(context.Background(), `DELETE FROM chat_history WHERE user_id = $1::uuid`, userID)
	})

	base := time.Now().Add(-time.Minute)
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Save(ctx, &contracts.ChatExchange{
			ID: uuid.NewString(), UserID: userID,
			Message: fmt.Sprintf("q%d", i), Response: "a",
			Sources: []string{"600036"}, CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	history, err := repo.ListByUser(ctx, userID, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "q2", history[0].Message)
	assert.Equal(t, []string{"600036"}, history[0].Sources)
}
