package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/agentflow/ai/llm"
	"github.com/hrygo/agentflow/store"
)

type fakeCall struct {
	Shape  string
	System string
	User   string
}

// fakeLLM replays canned responses per shape name, FIFO within a shape, and
// records every call it sees. The trip planner drives it from two goroutines
// at once, so all state is mutex-guarded.
type fakeLLM struct {
	mu        sync.Mutex
	responses map[string][]string
	calls     []fakeCall
}

func (f *fakeLLM) ChatStructured(_ context.Context, msgs []llm.Message, req llm.StructuredRequest) (string, *llm.CallStats, error) {
	call := fakeCall{Shape: req.Name}
	for _, m := range msgs {
		switch m.Role {
		case "system":
			call.System = m.Content
		case "user":
			call.User = m.Content
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)

	queue := f.responses[req.Name]
	if len(queue) == 0 {
		return "", nil, fmt.Errorf("no canned response left for shape %q", req.Name)
	}
	f.responses[req.Name] = queue[1:]
	return queue[0], &llm.CallStats{}, nil
}

func (f *fakeLLM) Warmup(context.Context) {}

func (f *fakeLLM) countShape(shape string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Shape == shape {
			n++
		}
	}
	return n
}

func newTestChain(t *testing.T, f *fakeLLM, ask Asker) (*Chain, store.Store) {
	t.Helper()
	st, err := store.OpenJSONFile(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	chain := NewChain(f, st, ask)
	chain.TicketID = func() int { return 12345 }
	return chain, st
}

func noAsk(t *testing.T) Asker {
	return func(prompt string) (string, error) {
		t.Fatalf("unexpected solicitation: %q", prompt)
		return "", nil
	}
}

func TestChain_DeclinesNonBooking(t *testing.T) {
	f := &fakeLLM{responses: map[string][]string{
		"check_ticket_booking": {`{"description":"weather question","is_ticket_booking":false,"new_or_modify":"new"}`},
	}}
	chain, _ := newTestChain(t, f, noAsk(t))

	result, err := chain.Run(context.Background(), "What is the weather in Paris?")
	require.NoError(t, err)

	require.Equal(t, OutcomeDeclined, result.Outcome)
	require.Contains(t, result.Confirmation, "cannot help")
	require.Len(t, f.calls, 1, "the gate must stop before any extraction or confirmation call")
}

func TestChain_NewBooking(t *testing.T) {
	f := &fakeLLM{responses: map[string][]string{
		"check_ticket_booking":  {`{"description":"flight booking","is_ticket_booking":true,"new_or_modify":"new"}`},
		"extract_ticket_info":   {`{"source":"New York","destination":"London","departure_date":"2026-03-10","return_date":"2026-03-25","ticket_id":0}`},
		"generate_confirmation": {`{"confirmation_message":"Booked! New York to London, ticket 12345."}`},
	}}
	chain, st := newTestChain(t, f, noAsk(t))

	result, err := chain.Run(context.Background(),
		"I want to book a flight ticket from New York to London on Mar 10 and return on Mar 25")
	require.NoError(t, err)

	require.Equal(t, OutcomeBooked, result.Outcome)
	require.Equal(t, 1, f.countShape("extract_ticket_info"), "departure date present, no re-extraction")
	require.Equal(t, 1, f.countShape("generate_confirmation"))

	// The confirmation call must see the full flight details.
	confirmCall := f.calls[len(f.calls)-1]
	require.Contains(t, confirmCall.User, "New York")
	require.Contains(t, confirmCall.User, "London")
	require.Contains(t, confirmCall.User, "12345")

	record, err := st.Get(context.Background(), "12345")
	require.NoError(t, err)
	require.Equal(t, "March 10, 2026", record.DepartureDate)
	require.Equal(t, "March 25, 2026", record.ReturnDate)
}

func TestChain_SolicitsMissingDepartureOnce(t *testing.T) {
	f := &fakeLLM{responses: map[string][]string{
		"check_ticket_booking": {`{"description":"flight booking","is_ticket_booking":true,"new_or_modify":"new"}`},
		"extract_ticket_info": {
			`{"source":"New York","destination":"London","departure_date":"","return_date":"","ticket_id":0}`,
			`{"source":"New York","destination":"London","departure_date":"2026-03-10","return_date":"","ticket_id":0}`,
		},
		"generate_confirmation": {`{"confirmation_message":"Booked."}`},
	}}

	askCount := 0
	chain, _ := newTestChain(t, f, func(prompt string) (string, error) {
		askCount++
		require.Contains(t, prompt, "departure date")
		return "Mar 10", nil
	})

	result, err := chain.Run(context.Background(), "Book a flight from New York to London")
	require.NoError(t, err)

	require.Equal(t, OutcomeBooked, result.Outcome)
	require.Equal(t, 1, askCount, "exactly one solicitation")
	require.Equal(t, 2, f.countShape("extract_ticket_info"), "exactly one re-extraction")

	// The re-extraction input must carry the solicited answer.
	var second fakeCall
	seen := 0
	for _, c := range f.calls {
		if c.Shape == "extract_ticket_info" {
			seen++
			if seen == 2 {
				second = c
			}
		}
	}
	require.Contains(t, second.User, "the departure date is Mar 10")
}

func TestChain_MissingDepartureAfterRetry(t *testing.T) {
	f := &fakeLLM{responses: map[string][]string{
		"check_ticket_booking": {`{"description":"flight booking","is_ticket_booking":true,"new_or_modify":"new"}`},
		"extract_ticket_info": {
			`{"source":"New York","destination":"London","departure_date":"","return_date":"","ticket_id":0}`,
			`{"source":"New York","destination":"London","departure_date":"none","return_date":"","ticket_id":0}`,
		},
	}}

	chain, _ := newTestChain(t, f, func(string) (string, error) { return "someday", nil })

	_, err := chain.Run(context.Background(), "Book a flight from New York to London")
	require.ErrorIs(t, err, ErrMissingDeparture)
	require.Equal(t, 0, f.countShape("generate_confirmation"), "no confirmation after a failed retry")
}

func TestChain_ModifyMergesOverStoredRecord(t *testing.T) {
	ctx := context.Background()
	f := &fakeLLM{responses: map[string][]string{
		"check_ticket_booking": {`{"description":"change departure","is_ticket_booking":true,"new_or_modify":"modify"}`},
		"extract_ticket_info": {
			// First pass finds the ticket id in the request text.
			`{"source":"","destination":"","departure_date":"","return_date":"","ticket_id":60569}`,
			// Modification pass changes only the departure date.
			`{"source":"","destination":"","departure_date":"2026-03-18","return_date":"","ticket_id":60569}`,
		},
		"generate_confirmation": {`{"confirmation_message":"Updated, ticket 60569."}`},
	}}
	chain, st := newTestChain(t, f, noAsk(t))

	_, err := st.Upsert(ctx, "60569", store.Record{
		Source:        "New York",
		Destination:   "Delhi",
		DepartureDate: "March 10, 2026",
		ReturnDate:    "March 25, 2026",
		TicketID:      "60569",
	})
	require.NoError(t, err)

	result, err := chain.Run(ctx, "Modify ticket 60569 by changing the departure date to March 18th")
	require.NoError(t, err)
	require.Equal(t, OutcomeModified, result.Outcome)

	// Merge law: only the departure date changes, everything else is retained.
	record, err := st.Get(ctx, "60569")
	require.NoError(t, err)
	require.Equal(t, "March 18, 2026", record.DepartureDate)
	require.Equal(t, "New York", record.Source)
	require.Equal(t, "Delhi", record.Destination)
	require.Equal(t, "March 25, 2026", record.ReturnDate)

	// The modification prompt must carry the previously stored record, so
	// the model can retain unspecified fields.
	var modifyCall fakeCall
	seen := 0
	for _, c := range f.calls {
		if c.Shape == "extract_ticket_info" {
			seen++
			if seen == 2 {
				modifyCall = c
			}
		}
	}
	require.Contains(t, modifyCall.System, "Delhi")
	require.Contains(t, modifyCall.System, "March 10, 2026")
}

func TestChain_ModifyUnknownTicketCreates(t *testing.T) {
	f := &fakeLLM{responses: map[string][]string{
		"check_ticket_booking": {`{"description":"change","is_ticket_booking":true,"new_or_modify":"modify"}`},
		"extract_ticket_info": {
			`{"source":"","destination":"","departure_date":"","return_date":"","ticket_id":99001}`,
			`{"source":"Oslo","destination":"Rome","departure_date":"2026-06-02","return_date":"","ticket_id":99001}`,
		},
		"generate_confirmation": {`{"confirmation_message":"Done."}`},
	}}
	chain, st := newTestChain(t, f, noAsk(t))

	result, err := chain.Run(context.Background(), "Modify ticket 99001: fly Oslo to Rome on June 2")
	require.NoError(t, err)
	require.Equal(t, OutcomeModified, result.Outcome)

	record, err := st.Get(context.Background(), "99001")
	require.NoError(t, err)
	require.Equal(t, "Oslo", record.Source)
}

func TestChain_ModifySolicitsTicketID(t *testing.T) {
	f := &fakeLLM{responses: map[string][]string{
		"check_ticket_booking": {`{"description":"change","is_ticket_booking":true,"new_or_modify":"modify"}`},
		"extract_ticket_info": {
			`{"source":"","destination":"","departure_date":"","return_date":"","ticket_id":0}`,
			`{"source":"","destination":"","departure_date":"2026-03-18","return_date":"","ticket_id":0}`,
		},
		"generate_confirmation": {`{"confirmation_message":"Done."}`},
	}}

	chain, st := newTestChain(t, f, func(prompt string) (string, error) {
		require.Contains(t, prompt, "ticket ID")
		return "321", nil
	})

	_, err := chain.Run(context.Background(), "Change the departure date to March 18th")
	require.NoError(t, err)

	_, err = st.Get(context.Background(), "321")
	require.NoError(t, err)
}

func TestChain_TransportErrorPropagates(t *testing.T) {
	f := &fakeLLM{responses: map[string][]string{}}
	chain, _ := newTestChain(t, f, noAsk(t))

	_, err := chain.Run(context.Background(), "Book a flight")
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrMissingDeparture))
}
