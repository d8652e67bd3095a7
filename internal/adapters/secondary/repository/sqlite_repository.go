package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vetroai/vetro/internal/core/domain"
	"github.com/vetroai/vetro/internal/logger"
)

// ErrNotFound is returned when a session or user does not exist
var ErrNotFound = errors.New("not found")

// ErrEmailTaken is returned when signing up with an existing email
var ErrEmailTaken = errors.New("an account with this email already exists")

// SQLiteRepository persists users and sessions in a single SQLite file.
// It implements both SessionRepositoryPort and UserRepositoryPort.
type SQLiteRepository struct {
	db     *sql.DB
	mutex  sync.RWMutex
	logger logger.Logger
}

// NewSQLiteRepository opens (and creates if needed) the database at path
func NewSQLiteRepository(path string, log logger.Logger) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteRepository{
		db:     db,
		logger: log,
	}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			messages TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_sessions_user
		ON sessions(user_id, updated_at DESC)
	`)
	return err
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// SaveSession inserts or updates a session
func (r *SQLiteRepository) SaveSession(ctx context.Context, session *domain.Session) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	messages, err := json.Marshal(session.Messages)
	if err != nil {
		return fmt.Errorf("encoding messages: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, title, messages, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			messages = excluded.messages,
			updated_at = excluded.updated_at
	`,
		session.ID,
		session.UserID,
		session.Title,
		string(messages),
		session.CreatedAt.Format(time.RFC3339),
		session.UpdatedAt.Format(time.RFC3339),
	)
	return err
}

// GetSession retrieves one of the user's sessions by ID
func (r *SQLiteRepository) GetSession(ctx context.Context, userID, id string) (*domain.Session, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, messages, created_at, updated_at
		FROM sessions
		WHERE id = ? AND user_id = ?
	`, id, userID)

	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return session, err
}

// ListSessions returns the user's sessions, newest first, optionally
// filtered by case-insensitive title substring
func (r *SQLiteRepository) ListSessions(ctx context.Context, userID, titleQuery string) ([]*domain.Session, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	query := `
		SELECT id, user_id, title, messages, created_at, updated_at
		FROM sessions
		WHERE user_id = ?
	`
	args := []interface{}{userID}
	if titleQuery != "" {
		query += ` AND LOWER(title) LIKE ?`
		args = append(args, "%"+strings.ToLower(titleQuery)+"%")
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*domain.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// DeleteSession deletes one of the user's sessions by ID
func (r *SQLiteRepository) DeleteSession(ctx context.Context, userID, id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateUser stores a new account
func (r *SQLiteRepository) CreateUser(ctx context.Context, user *domain.User) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)
	`,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.CreatedAt.Format(time.RFC3339),
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrEmailTaken
	}
	return err
}

// GetUserByEmail retrieves an account by email
func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var user domain.User
	var createdAt string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at
		FROM users
		WHERE email = ?
	`, email).Scan(&user.ID, &user.Email, &user.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	user.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &user, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var session domain.Session
	var messages, createdAt, updatedAt string

	if err := row.Scan(&session.ID, &session.UserID, &session.Title, &messages, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(messages), &session.Messages); err != nil {
		return nil, fmt.Errorf("decoding messages: %w", err)
	}
	session.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	session.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &session, nil
}
