package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/vetroai/vetro/internal/core/domain"
	"github.com/vetroai/vetro/internal/logger"
)

// InMemoryRepository implements the session and user repository ports with
// map storage. Used in tests and for running without a database file.
type InMemoryRepository struct {
	sessions map[string]*domain.Session
	users    map[string]*domain.User // keyed by email
	mutex    sync.RWMutex
	logger   logger.Logger
}

// NewInMemoryRepository creates a new InMemoryRepository
func NewInMemoryRepository(log logger.Logger) *InMemoryRepository {
	return &InMemoryRepository{
		sessions: make(map[string]*domain.Session),
		users:    make(map[string]*domain.User),
		logger:   log,
	}
}

// SaveSession saves a session
func (r *InMemoryRepository) SaveSession(ctx context.Context, session *domain.Session) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.sessions[session.ID] = session
	return nil
}

// GetSession retrieves one of the user's sessions by ID
func (r *InMemoryRepository) GetSession(ctx context.Context, userID, id string) (*domain.Session, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	session, exists := r.sessions[id]
	if !exists || session.UserID != userID {
		return nil, ErrNotFound
	}
	return session, nil
}

// ListSessions returns the user's sessions, newest first
func (r *InMemoryRepository) ListSessions(ctx context.Context, userID, titleQuery string) ([]*domain.Session, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	titleQuery = strings.ToLower(titleQuery)
	var sessions []*domain.Session
	for _, session := range r.sessions {
		if session.UserID != userID {
			continue
		}
		if titleQuery != "" && !strings.Contains(strings.ToLower(session.Title), titleQuery) {
			continue
		}
		sessions = append(sessions, session)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}

// DeleteSession deletes one of the user's sessions by ID
func (r *InMemoryRepository) DeleteSession(ctx context.Context, userID, id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	session, exists := r.sessions[id]
	if !exists || session.UserID != userID {
		return ErrNotFound
	}
	delete(r.sessions, id)
	return nil
}

// CreateUser stores a new account
func (r *InMemoryRepository) CreateUser(ctx context.Context, user *domain.User) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.users[user.Email]; exists {
		return ErrEmailTaken
	}
	r.users[user.Email] = user
	return nil
}

// GetUserByEmail retrieves an account by email
func (r *InMemoryRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	user, exists := r.users[email]
	if !exists {
		return nil, ErrNotFound
	}
	return user, nil
}
