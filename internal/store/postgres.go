package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	id               BIGSERIAL PRIMARY KEY,
	plate            TEXT        NOT NULL,
	char_confidence  INTEGER     NOT NULL,
	plate_confidence INTEGER     NOT NULL,
	status           SMALLINT    NOT NULL,
	kind             SMALLINT    NOT NULL DEFAULT 0,
	logged_at        TIMESTAMPTZ NOT NULL,
	image_path       TEXT
);
CREATE INDEX IF NOT EXISTS entries_plate_logged_at ON entries (plate, logged_at DESC);
CREATE TABLE IF NOT EXISTS residents (
	plate  TEXT PRIMARY KEY,
	status SMALLINT NOT NULL
);`

const entryColumns = `id, plate, char_confidence, plate_confidence, status, kind, logged_at, image_path`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Postgres is a Store backed by a PostgreSQL database.
type Postgres struct {
	db *sql.DB
}

// OpenPostgres connects to dsn with the pgx driver and checks the connection.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}
	return NewPostgres(db), nil
}

// NewPostgres wraps an open database handle.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the entries and residents tables if missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "failed to create schema")
	}
	return nil
}

// LastEntry returns the newest entry for plate, or nil when there is none.
func (p *Postgres) LastEntry(ctx context.Context, plate string) (*Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE plate = $1 ORDER BY logged_at DESC, id DESC LIMIT 1`

	e, err := scanEntry(p.db.QueryRowContext(ctx, query, plate))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "last entry for %q", plate)
	}
	return e, nil
}

// InsertEntry inserts e and sets its ID from the database.
func (p *Postgres) InsertEntry(ctx context.Context, e *Entry) error {
	query := `INSERT INTO entries (plate, char_confidence, plate_confidence, status, kind, logged_at, image_path)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	err := p.db.QueryRowContext(ctx, query,
		e.Plate, e.CharConfidence, e.PlateConfidence, int(e.Status), int(e.Kind), e.LoggedAt, e.ImagePath,
	).Scan(&e.ID)
	if err != nil {
		return errors.Wrapf(err, "insert entry for %q", e.Plate)
	}
	return nil
}

// PlateStatus looks plate up in the residents table. Unknown plates are
// Unregistered.
func (p *Postgres) PlateStatus(ctx context.Context, plate string) (Status, error) {
	var s int
	err := p.db.QueryRowContext(ctx, `SELECT status FROM residents WHERE plate = $1`, plate).Scan(&s)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Unregistered, nil
		}
		return Unregistered, errors.Wrapf(err, "status for %q", plate)
	}
	return Status(s), nil
}

// ListEntries returns entries whose plate contains f.Plate, newest first.
func (p *Postgres) ListEntries(ctx context.Context, f Filter) ([]Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE plate LIKE $1 ORDER BY logged_at DESC, id DESC LIMIT $2`
	rows, err := p.db.QueryContext(ctx, query, "%"+likeEscaper.Replace(f.Plate)+"%", f.limit())
	if err != nil {
		return nil, errors.Wrap(err, "list entries")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, errors.Wrap(err, "list entries (scanning row)")
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "list entries (rows error)")
	}
	return entries, nil
}

// Close closes the underlying database handle.
func (p *Postgres) Close() error {
	return p.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var e Entry
	var status, kind int
	if err := row.Scan(
		&e.ID, &e.Plate, &e.CharConfidence, &e.PlateConfidence, &status, &kind, &e.LoggedAt, &e.ImagePath,
	); err != nil {
		return nil, err
	}
	e.Status = Status(status)
	e.Kind = Kind(kind)
	e.LoggedAt = e.LoggedAt.In(time.UTC)
	return &e, nil
}
