package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"hr-assistant/internal/chathistory"
	"hr-assistant/internal/model"
	"hr-assistant/internal/rag"
)

var (
	ErrChatSessionNotFound = errors.New("chat session not found")
	ErrMessageEmpty        = errors.New("message content is empty")
)

// SessionGreeting seeds every new conversation.
const SessionGreeting = "Hello! How can I assist you with the HR policies today?"

// ChatService owns conversation history and routes each user message through
// the query engine. History never leaves process memory.
type ChatService struct {
	history *chathistory.Store
	engine  *rag.Engine
}

func NewChatService(history *chathistory.Store, engine *rag.Engine) *ChatService {
	return &ChatService{history: history, engine: engine}
}

type ChatSession struct {
	ID    string       `json:"id"`
	Turns []model.Turn `json:"turns"`
}

// CreateSession opens a conversation seeded with the assistant greeting.
func (s *ChatService) CreateSession(userID uint) (*ChatSession, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	id, turns := s.history.Create(userID, SessionGreeting)
	return &ChatSession{ID: id, Turns: turns}, nil
}

type SendMessageResult struct {
	Reply   model.Turn `json:"reply"`
	Sources []string   `json:"sources,omitempty"`
}

// SendMessage appends the user turn, asks the engine, and appends the reply.
// Profanity and greetings are answered by the engine's fixed branches without
// touching the models; those replies still become ordinary history turns.
func (s *ChatService) SendMessage(ctx context.Context, userID uint, sessionID, content string) (*SendMessageResult, error) {
	if userID == 0 || sessionID == "" {
		return nil, ErrInvalidInput
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrMessageEmpty
	}

	userTurn := model.Turn{Role: "user", Content: content, CreatedAt: time.Now()}
	if !s.history.Append(userID, sessionID, userTurn) {
		return nil, ErrChatSessionNotFound
	}

	answer, err := s.engine.Ask(ctx, content)
	if err != nil {
		return nil, err
	}

	reply := model.Turn{Role: "assistant", Content: answer.Text, CreatedAt: time.Now()}
	s.history.Append(userID, sessionID, reply)

	return &SendMessageResult{Reply: reply, Sources: answer.Sources}, nil
}

// GetHistory returns the conversation's turns in order.
func (s *ChatService) GetHistory(userID uint, sessionID string) ([]model.Turn, error) {
	if userID == 0 || sessionID == "" {
		return nil, ErrInvalidInput
	}
	turns, ok := s.history.History(userID, sessionID)
	if !ok {
		return nil, ErrChatSessionNotFound
	}
	return turns, nil
}
