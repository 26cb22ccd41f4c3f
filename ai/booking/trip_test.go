package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrip_BooksFlightAndHotel(t *testing.T) {
	f := &fakeLLM{responses: map[string][]string{
		"check_ticket_booking":       {`{"description":"flight booking","is_ticket_booking":true,"new_or_modify":"new"}`},
		"extract_ticket_info":        {`{"source":"New York","destination":"London","departure_date":"2026-03-10","return_date":"2026-03-25","ticket_id":0}`},
		"generate_confirmation":      {`{"confirmation_message":"Flight booked, ticket 12345."}`},
		"hotel_booking_confirmation": {`{"hotel_confirmation_message":"Hotel in London, check-in March 10."}`},
		"combined_booking_confirmation": {
			`{"combined_confirmation_message":"Trip confirmed: flight and hotel, ticket 12345."}`,
		},
	}}
	chain, st := newTestChain(t, f, noAsk(t))
	trip := NewTrip(f, chain)

	result, err := trip.Run(context.Background(),
		"I want to book a flight ticket from New York to London on Mar 10 and return on Mar 25")
	require.NoError(t, err)

	require.Equal(t, 12345, result.TicketID)
	require.Equal(t, OutcomeBooked, result.Flight.Outcome)
	require.Contains(t, result.Combined, "Trip confirmed")

	// The join step must see both sub-chain confirmations.
	var combineCall fakeCall
	for _, c := range f.calls {
		if c.Shape == "combined_booking_confirmation" {
			combineCall = c
		}
	}
	require.Contains(t, combineCall.User, "Flight booked, ticket 12345.")
	require.Contains(t, combineCall.User, "Hotel in London, check-in March 10.")

	// The hotel prompt carries the shared ticket id.
	var hotelCall fakeCall
	for _, c := range f.calls {
		if c.Shape == "hotel_booking_confirmation" {
			hotelCall = c
		}
	}
	require.Contains(t, hotelCall.System, "12345")

	// Only the flight side writes the booking store.
	record, err := st.Get(context.Background(), "12345")
	require.NoError(t, err)
	require.Equal(t, "London", record.Destination)
}

func TestTrip_DeclinedFlightSkipsCombine(t *testing.T) {
	f := &fakeLLM{responses: map[string][]string{
		"check_ticket_booking":       {`{"description":"smalltalk","is_ticket_booking":false,"new_or_modify":"new"}`},
		"hotel_booking_confirmation": {`{"hotel_confirmation_message":"Hotel reserved."}`},
	}}
	chain, _ := newTestChain(t, f, noAsk(t))
	trip := NewTrip(f, chain)

	result, err := trip.Run(context.Background(), "Tell me a story")
	require.NoError(t, err)

	require.Equal(t, OutcomeDeclined, result.Flight.Outcome)
	require.Contains(t, result.Combined, "cannot help")
	require.Equal(t, 0, f.countShape("combined_booking_confirmation"))
}
