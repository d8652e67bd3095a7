package domain

import (
	"math/rand"
	"strings"
	"time"
)

// Message roles used across the service
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// WebMode controls whether a turn uses live web search
type WebMode string

const (
	// WebModeAuto lets the trigger classifier decide
	WebModeAuto WebMode = "auto"

	// WebModeOn forces a search for the turn
	WebModeOn WebMode = "on"

	// WebModeOff disables search for the turn
	WebModeOff WebMode = "off"
)

// Message represents a single chat message
type Message struct {
	ID             string    `json:"id"`
	Role           string    `json:"role"` // system, user or assistant
	Content        string    `json:"content"`
	UsedLiveSearch bool      `json:"used_live_search,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Session represents one persisted conversation between a user and the model
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User represents an authenticated account
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewMessage creates a new message
func NewMessage(role, content string) Message {
	return Message{
		ID:        generateID(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// NewSession creates a new session for a user
func NewSession(userID string) *Session {
	now := time.Now()
	return &Session{
		ID:        generateID(),
		UserID:    userID,
		Title:     "New Chat",
		Messages:  []Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddMessage appends a message to the session transcript. The first user
// message also names the session.
func (s *Session) AddMessage(message Message) {
	if s.Title == "New Chat" && message.Role == RoleUser {
		s.Title = TitleFromContent(message.Content)
	}
	s.Messages = append(s.Messages, message)
	s.UpdatedAt = time.Now()
}

// LastMessages returns up to n trailing messages of the transcript
func (s *Session) LastMessages(n int) []Message {
	if n <= 0 || len(s.Messages) <= n {
		return s.Messages
	}
	return s.Messages[len(s.Messages)-n:]
}

// TitleFromContent derives a sidebar title from the first user message
func TitleFromContent(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return "New Chat"
	}
	runes := []rune(content)
	if len(runes) <= 30 {
		return content
	}
	return string(runes[:30]) + "..."
}

// NewID generates a simple sortable ID
func NewID() string {
	return generateID()
}

// generateID generates a simple sortable ID
func generateID() string {
	return time.Now().Format("20060102150405") + randString(6)
}

const letterBytes = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// randString generates a random string of length n
func randString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = letterBytes[rand.Intn(len(letterBytes))]
	}
	return string(b)
}
