// Package store persists flight booking records across process runs.
// Records are keyed by ticket id; a modification must always be applied
// against the previously stored record for that id (read-merge-write).
package store

import (
	"context"

	"github.com/pkg/errors"

	"github.com/hrygo/agentflow/internal/profile"
)

// ErrNotFound is returned by Get when no record exists for the ticket id.
var ErrNotFound = errors.New("booking not found")

// Record is a persisted flight booking. Dates are stored in their
// human-readable form ("March 10, 2026") because that is what the
// confirmation step renders from.
type Record struct {
	Source        string `json:"source"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
	ReturnDate    string `json:"return_date,omitempty"`
	TicketID      string `json:"ticket_id"`
}

// Merge overlays the non-empty fields of overlay onto r and returns the
// result. Fields the modification request did not touch are retained.
func (r Record) Merge(overlay Record) Record {
	if overlay.Source != "" {
		r.Source = overlay.Source
	}
	if overlay.Destination != "" {
		r.Destination = overlay.Destination
	}
	if overlay.DepartureDate != "" {
		r.DepartureDate = overlay.DepartureDate
	}
	if overlay.ReturnDate != "" {
		r.ReturnDate = overlay.ReturnDate
	}
	if overlay.TicketID != "" {
		r.TicketID = overlay.TicketID
	}
	return r
}

// Store is the booking table. Implementations assume a single process and a
// single writer; there is no cross-process locking.
type Store interface {
	// Get returns the record for the ticket id, or ErrNotFound.
	Get(ctx context.Context, ticketID string) (Record, error)

	// Upsert merges the record over any existing one for the ticket id,
	// persists the result, and returns it.
	Upsert(ctx context.Context, ticketID string, record Record) (Record, error)

	// Close flushes and releases the underlying resource.
	Close() error
}

// New opens the booking store selected by the profile driver.
func New(p *profile.Profile) (Store, error) {
	switch p.Driver {
	case "jsonfile":
		return OpenJSONFile(p.Data)
	case "sqlite":
		return OpenSQLite(p.DSN)
	default:
		return nil, errors.Errorf("unknown store driver %q", p.Driver)
	}
}
