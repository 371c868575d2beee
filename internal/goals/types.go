package goals

import "time"

// Goal is a user-defined high-level intent that scheduled tasks serve.
// The action pipeline only reads goals.
type Goal struct {
	ID          string    `json:"id"`
	UserID      int       `json:"user_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Avatar      *string   `json:"avatar,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreateInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Avatar      *string `json:"avatar"`
}
