package alert

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/valuescope/backend/internal/contracts"
	"github.com/wonny/valuescope/backend/pkg/logger"
)

type fakeAlerts struct {
	items     []*contracts.Alert
	triggered map[string]time.Time
	markErr   error
}

func (f *fakeAlerts) ListByUser(ctx context.Context, userID string) ([]*contracts.Alert, error) {
	var out []*contracts.Alert
	for _, a := range f.items {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAlerts) Get(ctx context.Context, userID, id string) (*contracts.Alert, error) {
	for _, a := range f.items {
		if a.ID == id && a.UserID == userID {
			return a, nil
		}
	}
	return nil, contracts.ErrNotFound
}

func (f *fakeAlerts) Create(ctx context.Context, a *contracts.Alert) error {
	f.items = append(f.items, a)
	return nil
}

func (f *fakeAlerts) Update(ctx context.Context, userID, id string, patch contracts.AlertPatch) (*contracts.Alert, error) {
	a, err := f.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if patch.Threshold != nil {
		a.Threshold = *patch.Threshold
	}
	if patch.Condition != nil {
		a.Condition = *patch.Condition
	}
	if patch.Enabled != nil {
		a.Enabled = *patch.Enabled
	}
	if patch.NotifyChannel != nil {
		a.NotifyChannel = *patch.NotifyChannel
	}
	return a, nil
}

func (f *fakeAlerts) Delete(ctx context.Context, userID, id string) error {
	for i, a := range f.items {
		if a.ID == id && a.UserID == userID {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return contracts.ErrNotFound
}

func (f *fakeAlerts) ListEnabled(ctx context.Context) ([]*contracts.Alert, error) {
	var out []*contracts.Alert
	for _, a := range f.items {
		if a.Enabled {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAlerts) MarkTriggered(ctx context.Context, id string, at time.Time) error {
	if f.markErr != nil {
		return f.markErr
	}
	if f.triggered == nil {
		f.triggered = map[string]time.Time{}
	}
	f.triggered[id] = at
	return nil
}

type fakeSnapshots struct {
	byCode map[string]*contracts.IndicatorSnapshot
	calls  int
}

func (f *fakeSnapshots) GetByCode(ctx context.Context, code string) (*contracts.IndicatorSnapshot, error) {
	f.calls++
	s, ok := f.byCode[code]
	if !ok {
		return nil, contracts.ErrNotFound
	}
	return s, nil
}

func (f *fakeSnapshots) ListCandidates(ctx context.Context, markets, industries []string) ([]*contracts.IndicatorSnapshot, error) {
	return nil, nil
}

func (f *fakeSnapshots) Upsert(ctx context.Context, s *contracts.IndicatorSnapshot) error { return nil }

type recordingNotifier struct {
	events []contracts.AlertEvent
}

func (r *recordingNotifier) Notify(ctx context.Context, e contracts.AlertEvent) error {
	r.events = append(r.events, e)
	return nil
}

var now = time.Date(2024, 7, 1, 17, 30, 0, 0, time.UTC)

func newAlert(id, code, alertType, condition, threshold string) *contracts.Alert {
	return &contracts.Alert{
		ID: id, UserID: "u1", StockCode: code,
		AlertType: alertType, Condition: condition,
		Threshold: decimal.RequireFromString(threshold),
		Enabled:   true, NotifyChannel: contracts.ChannelWebsocket,
	}
}

func newTestChecker(alerts *fakeAlerts, snaps *fakeSnapshots) (*Checker, *recordingNotifier) {
	c := NewChecker(alerts, snaps, 24*time.Hour, logger.Nop())
	c.now = func() time.Time { return now }
	ws := &recordingNotifier{}
	c.Register(contracts.ChannelWebsocket, ws)
	return c, ws
}

func TestCheckAll(t *testing.T) {
	recent := now.Add(-2 * time.Hour)
	old := now.Add(-48 * time.Hour)

	cooling := newAlert("a3", "600036", contracts.AlertDividend, contracts.ConditionGT, "5")
	cooling.LastTriggered = &recent
	expired := newAlert("a4", "600036", contracts.AlertPE, contracts.ConditionLT, "10")
	expired.LastTriggered = &old
	email := newAlert("a6", "600036", contracts.AlertPrice, contracts.ConditionGT, "30")
	email.NotifyChannel = contracts.ChannelEmail
	disabled := newAlert("a7", "600036", contracts.AlertPrice, contracts.ConditionGT, "1")
	disabled.Enabled = false

	alerts := &fakeAlerts{items: []*contracts.Alert{
		newAlert("a1", "600036", contracts.AlertDividend, contracts.ConditionGT, "5"),
		newAlert("a2", "600036", contracts.AlertPB, contracts.ConditionLT, "0.5"),
		cooling,
		expired,
		newAlert("a5", "000001", contracts.AlertPE, contracts.ConditionLT, "10"),
		email,
		disabled,
	}}
	snaps := &fakeSnapshots{byCode: map[string]*contracts.IndicatorSnapshot{
		"600036": {Code: "600036", DividendYield: fp(5.3), PB: fp(0.9), PETTM: fp(6), Price: fp(32)},
	}}

	checker, ws := newTestChecker(alerts, snaps)
	res, err := checker.CheckAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, res.Checked)
	assert.Equal(t, 3, res.Triggered) // a1, a4, a6
	assert.Equal(t, 1, res.Cooldown)
	assert.Equal(t, 1, res.NoData)
	assert.Zero(t, res.Failed)

	require.Len(t, ws.events, 2)
	assert.Equal(t, "a1", ws.events[0].Alert.ID)
	assert.Equal(t, "5.3", ws.events[0].Value.String())
	assert.True(t, ws.events[0].TriggeredAt.Equal(now))
	assert.Equal(t, "a4", ws.events[1].Alert.ID)

	assert.Contains(t, alerts.triggered, "a6")
	assert.NotContains(t, alerts.triggered, "a3")
	// snapshot loaded once per code
	assert.Equal(t, 2, snaps.calls)
}

func TestCheckAll_MarkFailureCounts(t *testing.T) {
	alerts := &fakeAlerts{
		items:   []*contracts.Alert{newAlert("a1", "600036", contracts.AlertPrice, contracts.ConditionGT, "1")},
		markErr: errors.New("db down"),
	}
	snaps := &fakeSnapshots{byCode: map[string]*contracts.IndicatorSnapshot{"600036": {Price: fp(2)}}}

	checker, ws := newTestChecker(alerts, snaps)
	res, err := checker.CheckAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Empty(t, ws.events)
}
