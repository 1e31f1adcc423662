// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
// Each owner's group list is one JSON document in user_groups.
type SQLiteStore struct {
	db *sql.DB
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Debounced saves and member pushes may run concurrently; SQLite only
	// allows one writer.
	db.SetMaxOpenConns(1)

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetGroups loads the owner's group document.
func (s *SQLiteStore) GetGroups(ctx context.Context, ownerID string) ([]models.Group, bool, error) {
	return getGroups(ctx, s.db, ownerID)
}

// SaveGroups overwrites the owner's group document.
func (s *SQLiteStore) SaveGroups(ctx context.Context, ownerID string, groups []models.Group) error {
	return saveGroups(ctx, s.db, ownerID, groups)
}

// SyncGroupToMember writes group into the document of the account registered
// under email. The lookup, read and write share one transaction.
func (s *SQLiteStore) SyncGroupToMember(ctx context.Context, email string, group models.Group) (bool, error) {
	email = models.NormalizeEmail(email)
	if email == "" {
		return false, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var userID string
	err = tx.QueryRowContext(ctx, "SELECT id FROM users WHERE email = ?", email).Scan(&userID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up member: %w", err)
	}

	groups, _, err := getGroups(ctx, tx, userID)
	if err != nil {
		return false, err
	}
	if err := saveGroups(ctx, tx, userID, storage.UpsertGroup(groups, group)); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

// SyncGroupToAllMembers writes group into every member's document.
func (s *SQLiteStore) SyncGroupToAllMembers(ctx context.Context, group models.Group) error {
	return storage.SyncToAll(ctx, group, s.SyncGroupToMember)
}

func getGroups(ctx context.Context, q queryer, ownerID string) ([]models.Group, bool, error) {
	var doc string
	err := q.QueryRowContext(ctx,
		"SELECT groups FROM user_groups WHERE user_id = ?",
		ownerID,
	).Scan(&doc)
	if err == sql.ErrNoRows {
		return []models.Group{}, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get groups: %w", err)
	}

	groups := []models.Group{}
	if err := json.Unmarshal([]byte(doc), &groups); err != nil {
		return nil, false, fmt.Errorf("failed to decode groups: %w", err)
	}
	return groups, true, nil
}

func saveGroups(ctx context.Context, q queryer, ownerID string, groups []models.Group) error {
	if groups == nil {
		groups = []models.Group{}
	}
	doc, err := json.Marshal(groups)
	if err != nil {
		return fmt.Errorf("failed to encode groups: %w", err)
	}

	_, err = q.ExecContext(ctx,
		`INSERT INTO user_groups (user_id, groups, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET groups = excluded.groups, updated_at = excluded.updated_at`,
		ownerID, string(doc), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save groups: %w", err)
	}
	return nil
}
