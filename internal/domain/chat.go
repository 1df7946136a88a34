package domain

import (
	"errors"
	"strings"
	"time"
)

var ErrMessageEmpty = errors.New("chat message empty")

// ChatMessage is one transcript entry. Never mutated or deleted while the
// room exists; insertion order is the transcript order.
type ChatMessage struct {
	User      Identity  `json:"user"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func NewChatMessage(user Identity, text string) (ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return ChatMessage{}, ErrMessageEmpty
	}
	if user.NormalizedKey() == "" {
		return ChatMessage{}, ErrNameEmpty
	}
	return ChatMessage{User: user, Message: text, Timestamp: time.Now().UTC()}, nil
}
