// Package defaults persists user-chosen default values of template variables
// in a SQLite database, keyed by variable name.
package defaults

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/hitplate/packages/core/registry"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS variable_defaults (
	name       TEXT PRIMARY KEY COLLATE NOCASE,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// Store is a name to text store of default values
type Store struct {
	db           *sql.DB
	path         string
	queryTimeout time.Duration
}

// Open opens or creates the store at path. A path of ":memory:" keeps the
// store in memory.
func Open(path string) (*Store, error) {
	dsn := strings.TrimPrefix(strings.TrimPrefix(path, "sqlite://"), "sqlite:")
	if dsn == "" {
		return nil, fmt.Errorf("defaults database path is empty")
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open defaults database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared between calls
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize defaults database: %w", err)
	}

	return &Store{
		db:           db,
		path:         dsn,
		queryTimeout: 30 * time.Second,
	}, nil
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, s.queryTimeout)
}

// Load returns every stored default
func (s *Store) Load(ctx context.Context) (map[string]string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT name, value FROM variable_defaults`)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		values[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return values, nil
}

// Get returns the stored default of name
func (s *Store) Get(ctx context.Context, name string) (string, bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM variable_defaults WHERE name = ?`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query failed: %w", err)
	}
	return value, true, nil
}

// Set stores the default of one variable, replacing any previous value
func (s *Store) Set(ctx context.Context, name, value string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return upsert(ctx, s.db, name, value)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsert(ctx context.Context, db execer, name, value string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO variable_defaults (name, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		name, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to store default for %s: %w", name, err)
	}
	return nil
}

// Delete removes the default of one variable
func (s *Store) Delete(ctx context.Context, name string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM variable_defaults WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to delete default for %s: %w", name, err)
	}
	return nil
}

// Save replaces the whole store with values in one transaction
func (s *Store) Save(ctx context.Context, values map[string]string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM variable_defaults`); err != nil {
		return fmt.Errorf("failed to clear defaults: %w", err)
	}
	for _, name := range sortedKeys(values) {
		if err := upsert(ctx, tx, name, values[name]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Apply loads the stored defaults and sets them as user defaults of the
// matching registry variables. It returns the names whose stored text does
// not parse as the variable's type; unknown names are ignored.
func (s *Store) Apply(ctx context.Context, reg *registry.Registry) ([]string, error) {
	values, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return ApplyValues(reg, values), nil
}

// ApplyValues sets values as user defaults of the matching variables and
// returns the names that were rejected.
func ApplyValues(reg *registry.Registry, values map[string]string) []string {
	var rejected []string
	for _, name := range sortedKeys(values) {
		v, ok := reg.Get(name)
		if !ok {
			continue
		}
		if !v.SetUserDefaultFromString(values[name]) {
			rejected = append(rejected, name)
		}
	}
	return rejected
}

// Collect returns the user defaults currently set in reg as text.
func Collect(reg *registry.Registry) map[string]string {
	values := make(map[string]string)
	for _, v := range reg.Sorted() {
		if v.HasUserDefault() {
			values[v.Name] = v.UserDefaultText()
		}
	}
	return values
}

// SaveRegistry stores the user defaults of reg, keeping the other entries.
func (s *Store) SaveRegistry(ctx context.Context, reg *registry.Registry) error {
	for name, value := range Collect(reg) {
		if err := s.Set(ctx, name, value); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
