package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// BookingFileName is the flat file holding the booking table, relative to
// the data directory.
const BookingFileName = "flight_booking_details.json"

// jsonFileStore keeps the whole table in memory and rewrites the file in
// full on every upsert. Adequate for a single-process demo workload; a
// concurrent writer from another process would lose updates.
type jsonFileStore struct {
	mu       sync.Mutex
	path     string
	bookings map[string]Record
}

// OpenJSONFile opens the booking table stored as a single JSON file under
// dataDir. A missing or empty file yields an empty table.
func OpenJSONFile(dataDir string) (Store, error) {
	path := filepath.Join(dataDir, BookingFileName)

	bookings := make(map[string]Record)
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// First run, nothing persisted yet.
	case err != nil:
		return nil, errors.Wrapf(err, "failed to read booking file %s", path)
	case len(data) > 0:
		if err := json.Unmarshal(data, &bookings); err != nil {
			return nil, errors.Wrapf(err, "failed to parse booking file %s", path)
		}
	}

	return &jsonFileStore{path: path, bookings: bookings}, nil
}

func (s *jsonFileStore) Get(_ context.Context, ticketID string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.bookings[ticketID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return record, nil
}

func (s *jsonFileStore) Upsert(_ context.Context, ticketID string, record Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := s.bookings[ticketID].Merge(record)
	merged.TicketID = ticketID
	s.bookings[ticketID] = merged

	if err := s.flushLocked(); err != nil {
		return Record{}, err
	}
	return merged, nil
}

func (s *jsonFileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

func (s *jsonFileStore) flushLocked() error {
	data, err := json.Marshal(s.bookings)
	if err != nil {
		return errors.Wrap(err, "failed to encode booking table")
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write booking file %s", s.path)
	}
	return nil
}
