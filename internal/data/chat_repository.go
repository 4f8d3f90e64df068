package data

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/valuescope/backend/internal/contracts"
)

// ChatRepository implements contracts.ChatRepository
type ChatRepository struct {
	pool *pgxpool.Pool
}

// NewChatRepository creates a new chat history repository
func NewChatRepository(pool *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{pool: pool}
}

// Save stores one exchange
func (r *ChatRepository) Save(ctx context.Context, e *contracts.ChatExchange) error {
	sources := e.Sources
	if sources == nil {
		sources = []string{}
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO chat_history (id, user_id, message, response, sources, created_at)
		VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6)`,
		e.ID, e.UserID, e.Message, e.Response, sources, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("save chat exchange: %w", err)
	}
	return nil
}

// ListByUser returns the latest exchanges of userID, newest first
func (r *ChatRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*contracts.ChatExchange, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, user_id::text, message, response, sources, created_at
		FROM chat_history
		WHERE user_id = $1::uuid
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query chat history: %w", err)
	}
	defer rows.Close()

	var out []*contracts.ChatExchange
	for rows.Next() {
		var e contracts.ChatExchange
		if err := rows.Scan(&e.ID, &e.UserID, &e.Message, &e.Response, &e.Sources, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat exchange: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
