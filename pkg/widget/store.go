package widget

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound is returned by Get when no widget matches the given ID.
var ErrNotFound = errors.New("widget not found")

// Store persists widgets in SQLite.
type Store struct {
	db *sql.DB
}

// OpenStore opens (or creates) the widget database at path, enables WAL
// mode, and runs pending migrations.
func OpenStore(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate applies the embedded schema migrations.
func (s *Store) migrate() error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("creating migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("creating migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("creating migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Insert stores a new widget.
func (s *Store) Insert(ctx context.Context, w Widget) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO widgets (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		w.ID, w.Name, now, now,
	)
	if err != nil {
		return fmt.Errorf("inserting widget %s: %w", w.ID, err)
	}
	return nil
}

// Get returns the widget with the given ID, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (Widget, error) {
	var w Widget
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name FROM widgets WHERE id = ?`, id,
	).Scan(&w.ID, &w.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return Widget{}, ErrNotFound
	}
	if err != nil {
		return Widget{}, fmt.Errorf("reading widget %s: %w", id, err)
	}
	return w, nil
}

// Update rewrites a widget's attributes. It returns ErrNotFound when no
// row matched.
func (s *Store) Update(ctx context.Context, w Widget) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE widgets SET name = ?, updated_at = ? WHERE id = ?`,
		w.Name, time.Now().UTC(), w.ID,
	)
	if err != nil {
		return fmt.Errorf("updating widget %s: %w", w.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating widget %s: %w", w.ID, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a widget and reports whether a row was actually deleted.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM widgets WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting widget %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting widget %s: %w", id, err)
	}
	return affected > 0, nil
}
