package contracts

import "time"

// Chat roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one prior turn supplied by the client
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

// ChatExchange is a stored question/answer pair
type ChatExchange struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	Sources   []string  `json:"sources"`
	CreatedAt time.Time `json:"created_at"`
}
