package ports

import (
	"context"

	"github.com/vetroai/vetro/internal/core/domain"
)

// SessionRepositoryPort defines the interface for conversation persistence
type SessionRepositoryPort interface {
	// SaveSession inserts or updates a session
	SaveSession(ctx context.Context, session *domain.Session) error

	// GetSession retrieves one of the user's sessions by ID
	GetSession(ctx context.Context, userID, id string) (*domain.Session, error)

	// ListSessions returns the user's sessions, newest first. A non-empty
	// titleQuery filters by case-insensitive title substring.
	ListSessions(ctx context.Context, userID, titleQuery string) ([]*domain.Session, error)

	// DeleteSession deletes one of the user's sessions by ID
	DeleteSession(ctx context.Context, userID, id string) error
}

// UserRepositoryPort defines the interface for account persistence
type UserRepositoryPort interface {
	// CreateUser stores a new account; fails if the email is taken
	CreateUser(ctx context.Context, user *domain.User) error

	// GetUserByEmail retrieves an account by email
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}
