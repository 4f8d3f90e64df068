package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/wonny/valuescope/backend/internal/contracts"
)

// AlertRepository implements contracts.AlertRepository
type AlertRepository struct {
	pool *pgxpool.Pool
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(pool *pgxpool.Pool) *AlertRepository {
	return &AlertRepository{pool: pool}
}

const alertSelect = `
	SELECT a.id::text, a.user_id::text, a.stock_id::text, s.code, a.alert_type, a.condition,
		a.threshold::text, a.enabled, a.notify_channel, a.last_triggered, a.created_at
	FROM user_alerts a
	JOIN stocks s ON s.id = a.stock_id
`

func scanAlert(row pgx.Row) (*contracts.Alert, error) {
	var a contracts.Alert
	var threshold string
	err := row.Scan(&a.ID, &a.UserID, &a.StockID, &a.StockCode, &a.AlertType, &a.Condition,
		&threshold, &a.Enabled, &a.NotifyChannel, &a.LastTriggered, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.Threshold, err = decimal.NewFromString(threshold)
	if err != nil {
		return nil, fmt.Errorf("parse threshold %q: %w", threshold, err)
	}
	return &a, nil
}

func (r *AlertRepository) query(ctx context.Context, query string, args ...interface{}) ([]*contracts.Alert, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var out []*contracts.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListByUser returns the alerts of userID, newest first
func (r *AlertRepository) ListByUser(ctx context.Context, userID string) ([]*contracts.Alert, error) {
	return r.query(ctx, alertSelect+` WHERE a.user_id = $1::uuid ORDER BY a.created_at DESC`, userID)
}

// ListEnabled returns every enabled alert
func (r *AlertRepository) ListEnabled(ctx context.Context) ([]*contracts.Alert, error) {
	return r.query(ctx, alertSelect+` WHERE a.enabled ORDER BY s.code, a.created_at`)
}

// Get returns alert id owned by userID or contracts.ErrNotFound
func (r *AlertRepository) Get(ctx context.Context, userID, id string) (*contracts.Alert, error) {
	a, err := scanAlert(r.pool.QueryRow(ctx,
		alertSelect+` WHERE a.id = $1::uuid AND a.user_id = $2::uuid`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get alert %s: %w", id, err)
	}
	return a, nil
}

// Create inserts a. StockID must be resolved by the caller.
func (r *AlertRepository) Create(ctx context.Context, a *contracts.Alert) error {
	query := `
		INSERT INTO user_alerts (id, user_id, stock_id, alert_type, condition, threshold,
			enabled, notify_channel, created_at)
		VALUES ($1::uuid, $2::uuid, $3::uuid, $4, $5, $6::numeric, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query, a.ID, a.UserID, a.StockID, a.AlertType, a.Condition,
		a.Threshold.String(), a.Enabled, a.NotifyChannel, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("create alert: %w", err)
	}
	return nil
}

// Update applies patch to alert id owned by userID and returns the updated row
func (r *AlertRepository) Update(ctx context.Context, userID, id string, patch contracts.AlertPatch) (*contracts.Alert, error) {
	var threshold *string
	if patch.Threshold != nil {
		s := patch.Threshold.String()
		threshold = &s
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE user_alerts SET
			threshold = COALESCE($3::numeric, threshold),
			condition = COALESCE($4, condition),
			enabled = COALESCE($5, enabled),
			notify_channel = COALESCE($6, notify_channel)
		WHERE id = $1::uuid AND user_id = $2::uuid`,
		id, userID, threshold, patch.Condition, patch.Enabled, patch.NotifyChannel)
	if err != nil {
		return nil, fmt.Errorf("update alert %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, contracts.ErrNotFound
	}
	return r.Get(ctx, userID, id)
}

// Delete removes alert id owned by userID
func (r *AlertRepository) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM user_alerts WHERE id = $1::uuid AND user_id = $2::uuid`, id, userID)
	if err != nil {
		return fmt.Errorf("delete alert %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return contracts.ErrNotFound
	}
	return nil
}

// MarkTriggered records the last firing time of alert id
func (r *AlertRepository) MarkTriggered(ctx context.Context, id string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE user_alerts SET last_triggered = $2 WHERE id = $1::uuid`, id, at)
	if err != nil {
		return fmt.Errorf("mark alert %s triggered: %w", id, err)
	}
	return nil
}
