package store

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"
)

type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens the booking table backed by a SQLite database.
//
// Connection settings follow the usual recommendations for a local
// single-user file:
//   - WAL journal mode to avoid locking issues.
//   - busy_timeout so a stray reader does not fail the writer immediately.
//   - A single pooled connection; SQLite with WAL performs best that way.
//
// Note: with the `modernc.org/sqlite` driver each pragma must be prefixed
// with `_pragma=`.
func OpenSQLite(dsn string) (Store, error) {
	if dsn == "" {
		return nil, errors.New("dsn required")
	}

	db, err := sql.Open("sqlite", dsn+"?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", dsn)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS bookings (
			ticket_id TEXT PRIMARY KEY,
			source TEXT NOT NULL DEFAULT '',
			destination TEXT NOT NULL DEFAULT '',
			departure_date TEXT NOT NULL DEFAULT '',
			return_date TEXT NOT NULL DEFAULT ''
		)
	`); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to create bookings table")
	}

	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Get(ctx context.Context, ticketID string) (Record, error) {
	var record Record
	err := s.db.QueryRowContext(ctx, `
		SELECT ticket_id, source, destination, departure_date, return_date
		FROM bookings WHERE ticket_id = ?
	`, ticketID).Scan(&record.TicketID, &record.Source, &record.Destination, &record.DepartureDate, &record.ReturnDate)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, errors.Wrapf(err, "failed to get booking %s", ticketID)
	}
	return record, nil
}

func (s *sqliteStore) Upsert(ctx context.Context, ticketID string, record Record) (Record, error) {
	existing, err := s.Get(ctx, ticketID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Record{}, err
	}
	merged := existing.Merge(record)
	merged.TicketID = ticketID

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO bookings (ticket_id, source, destination, departure_date, return_date)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (ticket_id) DO UPDATE SET
			source = excluded.source,
			destination = excluded.destination,
			departure_date = excluded.departure_date,
			return_date = excluded.return_date
	`, ticketID, merged.Source, merged.Destination, merged.DepartureDate, merged.ReturnDate); err != nil {
		return Record{}, errors.Wrapf(err, "failed to upsert booking %s", ticketID)
	}
	return merged, nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}
