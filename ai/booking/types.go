// Package booking implements the flight booking workflows: a gated
// classify/extract/confirm chain with new-vs-modify routing, and a trip
// planner that books flight and hotel concurrently.
package booking

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Kind is the routing decision for a booking request. It is a closed variant:
// parsing anything outside {new, modify} fails at decode time rather than
// falling through a branch silently.
type Kind int

const (
	KindNew Kind = iota + 1
	KindModify
)

// ParseKind maps the model's routing label to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "new":
		return KindNew, nil
	case "modify":
		return KindModify, nil
	default:
		return 0, fmt.Errorf("unrecognized booking kind %q", s)
	}
}

func (k Kind) String() string {
	switch k {
	case KindNew:
		return "new"
	case KindModify:
		return "modify"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// UnmarshalJSON implements json.Unmarshaler via ParseKind.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Check is the classification step's contract.
type Check struct {
	// Description restates the request in the model's words.
	Description string `json:"description"`

	// IsTicketBooking gates the rest of the chain.
	IsTicketBooking bool `json:"is_ticket_booking"`

	// Kind routes between the fresh-booking and modification paths.
	Kind Kind `json:"new_or_modify"`
}

// TicketInfo is the extraction step's contract. Dates travel as YYYY-MM-DD
// strings; an empty string means the model could not find the value.
// TicketID is 0 when the request does not mention one.
type TicketInfo struct {
	Source        string `json:"source"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
	ReturnDate    string `json:"return_date"`
	TicketID      int    `json:"ticket_id"`
}

// Normalize cleans up field values smaller models are prone to emit for
// absent data ("none", "null") so that emptiness checks stay simple.
func (t TicketInfo) Normalize() TicketInfo {
	t.Source = normalizeField(t.Source)
	t.Destination = normalizeField(t.Destination)
	t.DepartureDate = normalizeField(t.DepartureDate)
	t.ReturnDate = normalizeField(t.ReturnDate)
	return t
}

func normalizeField(s string) string {
	trimmed := strings.TrimSpace(s)
	switch strings.ToLower(trimmed) {
	case "none", "null", "n/a":
		return ""
	}
	return trimmed
}

// Confirmation is the terminal contract of the booking chain.
type Confirmation struct {
	Message string `json:"confirmation_message"`
}

// HotelConfirmation is the hotel sub-chain's contract.
type HotelConfirmation struct {
	Message string `json:"hotel_confirmation_message"`
}

// TripConfirmation combines flight and hotel confirmations.
type TripConfirmation struct {
	Message string `json:"combined_confirmation_message"`
}

// formatDate renders an extracted YYYY-MM-DD date the way confirmations and
// persisted records carry it ("March 10, 2026"). Values that do not parse
// are passed through unchanged; the model occasionally returns an already
// formatted date and rejecting it would lose information.
func formatDate(s string) string {
	if s == "" {
		return ""
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("January 2, 2006")
		}
	}
	return s
}

// dateContext gives the model an anchor for resolving relative dates.
func dateContext(now time.Time) string {
	return fmt.Sprintf("Today is %s.", now.Format("Monday, January 2, 2006"))
}
