package model

import "time"

// Turn is a single entry in a conversation. History lives in process memory
// for the lifetime of the chat session only; it is never persisted.
type Turn struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
