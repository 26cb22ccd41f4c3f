package booking

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hrygo/agentflow/ai/llm"
)

// TripResult joins the flight and hotel confirmations.
type TripResult struct {
	RunID    string
	TicketID int
	Flight   *Result
	Hotel    string
	Combined string
}

// Trip books a flight and a hotel for the same request concurrently, then
// joins the two confirmations into one message. The booking store is written
// by the flight side only; the hotel side shares nothing mutable with it.
type Trip struct {
	llm   llm.Service
	chain *Chain
}

// NewTrip creates a trip planner on top of an existing booking chain.
func NewTrip(svc llm.Service, chain *Chain) *Trip {
	return &Trip{llm: svc, chain: chain}
}

// Run executes the flight and hotel sub-chains concurrently and combines
// their confirmations. The ticket id is allocated up front so both sides
// reference the same one.
func (t *Trip) Run(ctx context.Context, input string) (*TripResult, error) {
	runID := uuid.NewString()
	logger := slog.With("run_id", runID, "workflow", "trip")

	ticketID := t.chain.TicketID()
	logger.Info("booking flight and hotel concurrently", "ticket_id", ticketID)

	var (
		flight *Result
		hotel  HotelConfirmation
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		flight, err = t.chain.run(gctx, input, ticketID)
		return err
	})
	g.Go(func() error {
		var err error
		hotel, err = t.bookHotel(gctx, input, ticketID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &TripResult{
		RunID:    runID,
		TicketID: ticketID,
		Flight:   flight,
		Hotel:    hotel.Message,
	}

	if flight.Outcome == OutcomeDeclined {
		logger.Info("flight side declined the request, skipping combined confirmation")
		result.Combined = flight.Confirmation
		return result, nil
	}

	combined, _, err := llm.Invoke[TripConfirmation](ctx, t.llm, llm.StructuredRequest{
		Name:        "combined_booking_confirmation",
		Schema:      tripConfirmationSchema,
		Temperature: confirmTemperature,
	}, []llm.Message{
		llm.SystemPrompt(fmt.Sprintf(tripSystemPrompt, dateContext(t.chain.Now()))),
		llm.UserMessage(fmt.Sprintf(
			"Flight Booking Confirmation: %s\nHotel Booking Confirmation: %s",
			flight.Confirmation, hotel.Message,
		)),
	})
	if err != nil {
		return nil, err
	}

	logger.Info("trip confirmed", "ticket_id", ticketID)
	result.Combined = combined.Message
	return result, nil
}

func (t *Trip) bookHotel(ctx context.Context, input string, ticketID int) (HotelConfirmation, error) {
	hotel, _, err := llm.Invoke[HotelConfirmation](ctx, t.llm, llm.StructuredRequest{
		Name:        "hotel_booking_confirmation",
		Schema:      hotelConfirmationSchema,
		Temperature: confirmTemperature,
	}, []llm.Message{
		llm.SystemPrompt(fmt.Sprintf(hotelSystemPrompt, dateContext(t.chain.Now()), ticketID)),
		llm.UserMessage(input),
	})
	if err != nil {
		return HotelConfirmation{}, err
	}
	slog.Debug("hotel booked", "ticket_id", ticketID)
	return hotel, nil
}
