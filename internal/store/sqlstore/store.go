// Package sqlstore persists the deadline snapshot in SQLite (modernc.org/sqlite) or PostgreSQL (pgx).
// The snapshot is rewritten wholesale inside one transaction per Save.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ankittk/hardcheck/pkg/models"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// Store is the SQL implementation of store.SnapshotStore.
type Store struct {
	DB     *sqlx.DB
	driver string
}

// OpenSQLite opens (creating if needed) a SQLite database at path and runs migrations.
func OpenSQLite(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlite path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	return Open(DriverSQLite, dsn)
}

// OpenPostgres opens a PostgreSQL database. An empty dsn falls back to DATABASE_URL.
func OpenPostgres(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		return nil, errors.New("postgres DSN required (set --db-url or DATABASE_URL)")
	}
	return Open(DriverPostgres, dsn)
}

// Open connects with the given driver ("sqlite" or "pgx") and migrates the schema.
func Open(driver, dsn string) (*Store, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{DB: db, driver: driver}
	if err := s.Migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	slog.Info("deadline store connected", "driver", driver)
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// Migrate applies pending migrations. Safe to call repeatedly.
func (s *Store) Migrate(ctx context.Context) error {
	dialect := goose.DialectSQLite3
	if s.driver == DriverPostgres {
		dialect = goose.DialectPostgres
	}
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrations directory: %w", err)
	}
	provider, err := goose.NewProvider(dialect, s.DB.DB, sub)
	if err != nil {
		return fmt.Errorf("migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

type userRow struct {
	UserID string `db:"user_id"`
	Name   string `db:"name"`
	Role   string `db:"role"`
}

type deadlineRow struct {
	ID             string         `db:"id"`
	UserID         string         `db:"user_id"`
	Position       int            `db:"position"`
	Task           string         `db:"task"`
	DueDate        string         `db:"due_date"`
	Type           string         `db:"type"`
	CreatedAt      string         `db:"created_at"`
	Completed      bool           `db:"completed"`
	CompletedAt    sql.NullString `db:"completed_at"`
	Reminded       bool           `db:"reminded"`
	ReminderCount  int            `db:"reminder_count"`
	LastReminderAt sql.NullString `db:"last_reminder_at"`
}

func (s *Store) Load(ctx context.Context) (models.Snapshot, error) {
	var users []userRow
	if err := s.DB.SelectContext(ctx, &users, `SELECT user_id, name, role FROM deadline_users`); err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	snap := make(models.Snapshot, len(users))
	for _, u := range users {
		snap[u.UserID] = &models.UserRecord{
			Name:               u.Name,
			Role:               u.Role,
			ActiveDeadlines:    []models.Deadline{},
			CompletedDeadlines: []models.Deadline{},
		}
	}

	var rows []deadlineRow
	if err := s.DB.SelectContext(ctx, &rows, `
SELECT id, user_id, position, task, due_date, type, created_at, completed, completed_at,
       reminded, reminder_count, last_reminder_at
FROM deadlines
ORDER BY user_id, completed, position`); err != nil {
		return nil, fmt.Errorf("load deadlines: %w", err)
	}
	for _, r := range rows {
		rec := snap[r.UserID]
		if rec == nil {
			continue
		}
		d, err := r.toModel()
		if err != nil {
			return nil, fmt.Errorf("deadline %s: %w", r.ID, err)
		}
		if d.Completed {
			rec.CompletedDeadlines = append(rec.CompletedDeadlines, d)
		} else {
			rec.ActiveDeadlines = append(rec.ActiveDeadlines, d)
		}
	}
	return snap, nil
}

func (s *Store) Save(ctx context.Context, snap models.Snapshot) error {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM deadlines`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM deadline_users`); err != nil {
		return err
	}
	for userID, rec := range snap {
		if rec == nil {
			continue
		}
		if _, err := tx.NamedExecContext(ctx,
			`INSERT INTO deadline_users (user_id, name, role) VALUES (:user_id, :name, :role)`,
			userRow{UserID: userID, Name: rec.Name, Role: rec.Role}); err != nil {
			return fmt.Errorf("save user %s: %w", userID, err)
		}
		all := make([]models.Deadline, 0, len(rec.ActiveDeadlines)+len(rec.CompletedDeadlines))
		all = append(all, rec.ActiveDeadlines...)
		all = append(all, rec.CompletedDeadlines...)
		for i, d := range all {
			if _, err := tx.NamedExecContext(ctx, `
INSERT INTO deadlines (id, user_id, position, task, due_date, type, created_at, completed,
                       completed_at, reminded, reminder_count, last_reminder_at)
VALUES (:id, :user_id, :position, :task, :due_date, :type, :created_at, :completed,
        :completed_at, :reminded, :reminder_count, :last_reminder_at)`,
				fromModel(userID, i, d)); err != nil {
				return fmt.Errorf("save deadline %s: %w", d.ID, err)
			}
		}
	}
	return tx.Commit()
}

func fromModel(userID string, pos int, d models.Deadline) deadlineRow {
	return deadlineRow{
		ID:             d.ID,
		UserID:         userID,
		Position:       pos,
		Task:           d.Task,
		DueDate:        d.DueDate,
		Type:           d.Type,
		CreatedAt:      d.CreatedAt.UTC().Format(time.RFC3339Nano),
		Completed:      d.Completed,
		CompletedAt:    nullTime(d.CompletedAt),
		Reminded:       d.Reminded,
		ReminderCount:  d.ReminderCount,
		LastReminderAt: nullTime(d.LastReminderAt),
	}
}

func (r deadlineRow) toModel() (models.Deadline, error) {
	created, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
	if err != nil {
		return models.Deadline{}, err
	}
	d := models.Deadline{
		ID:            r.ID,
		Task:          r.Task,
		DueDate:       r.DueDate,
		Type:          r.Type,
		CreatedAt:     created,
		Completed:     r.Completed,
		Reminded:      r.Reminded,
		ReminderCount: r.ReminderCount,
	}
	if d.CompletedAt, err = parseNullTime(r.CompletedAt); err != nil {
		return models.Deadline{}, err
	}
	if d.LastReminderAt, err = parseNullTime(r.LastReminderAt); err != nil {
		return models.Deadline{}, err
	}
	return d, nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339Nano), Valid: true}
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
