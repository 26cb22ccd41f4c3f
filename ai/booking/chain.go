package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/hrygo/agentflow/ai/llm"
	"github.com/hrygo/agentflow/store"
)

// ErrMissingDeparture is returned when no departure date could be extracted
// even after the single interactive retry.
var ErrMissingDeparture = errors.New("departure date missing after retry")

// Asker solicits one free-text line from the caller. The chain uses it once
// per run at most, to fill in a missing departure date or ticket id.
type Asker func(prompt string) (string, error)

// Outcome is the terminal state of a chain run.
type Outcome int

const (
	// OutcomeDeclined means the gate rejected the request; no extraction or
	// confirmation call was made.
	OutcomeDeclined Outcome = iota + 1

	// OutcomeBooked means a fresh booking was persisted and confirmed.
	OutcomeBooked

	// OutcomeModified means an existing booking was merged and confirmed.
	OutcomeModified
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDeclined:
		return "declined"
	case OutcomeBooked:
		return "booked"
	case OutcomeModified:
		return "modified"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Result is what a chain run produced.
type Result struct {
	RunID        string
	Outcome      Outcome
	Check        Check
	Ticket       store.Record
	Confirmation string
}

// Chain is the gated booking workflow: classify, route on new-vs-modify,
// extract, confirm. One LLM call per step, no retries beyond the single
// missing-departure solicitation.
type Chain struct {
	llm   llm.Service
	store store.Store
	ask   Asker

	// Now and TicketID are swappable for tests.
	Now      func() time.Time
	TicketID func() int
}

// NewChain creates a booking chain. ask may be nil, in which case a missing
// departure date is an error instead of a prompt.
func NewChain(svc llm.Service, st store.Store, ask Asker) *Chain {
	return &Chain{
		llm:      svc,
		store:    st,
		ask:      ask,
		Now:      time.Now,
		TicketID: func() int { return rand.IntN(90000) + 10000 },
	}
}

// Run executes the chain for one user request.
func (c *Chain) Run(ctx context.Context, input string) (*Result, error) {
	return c.run(ctx, input, 0)
}

// run is the shared body; ticketID > 0 means the caller pre-allocated the
// ticket id (the trip planner does, so flight and hotel agree on it).
func (c *Chain) run(ctx context.Context, input string, ticketID int) (*Result, error) {
	runID := uuid.NewString()
	logger := slog.With("run_id", runID, "workflow", "booking_chain")

	logger.Info("classifying request")
	check, _, err := llm.Invoke[Check](ctx, c.llm, llm.StructuredRequest{
		Name:        "check_ticket_booking",
		Schema:      checkSchema,
		Temperature: classifyTemperature,
	}, []llm.Message{
		llm.SystemPrompt(classifySystemPrompt),
		llm.UserMessage(input),
	})
	if err != nil {
		return nil, err
	}
	logger.Info("classification complete",
		"is_ticket_booking", check.IsTicketBooking,
		"kind", check.Kind.String(),
	)

	if !check.IsTicketBooking {
		logger.Info("request is not a ticket booking, declining")
		return &Result{
			RunID:        runID,
			Outcome:      OutcomeDeclined,
			Check:        check,
			Confirmation: "Sorry, I cannot help you with this request.",
		}, nil
	}

	switch check.Kind {
	case KindNew:
		return c.runNew(ctx, logger, runID, check, input, ticketID)
	case KindModify:
		return c.runModify(ctx, logger, runID, check, input)
	default:
		// Unreachable while Kind decodes through ParseKind; keeps the
		// switch exhaustive if a variant is ever added.
		return nil, fmt.Errorf("unhandled booking kind %v", check.Kind)
	}
}

func (c *Chain) runNew(ctx context.Context, logger *slog.Logger, runID string, check Check, input string, ticketID int) (*Result, error) {
	logger.Info("new booking request, extracting ticket info")
	info, err := c.extract(ctx, input)
	if err != nil {
		return nil, err
	}

	if info.DepartureDate == "" {
		if c.ask == nil {
			return nil, ErrMissingDeparture
		}
		logger.Info("departure date missing, soliciting input")
		answer, err := c.ask("Please enter the departure date: ")
		if err != nil {
			return nil, fmt.Errorf("solicit departure date: %w", err)
		}
		info, err = c.extract(ctx, fmt.Sprintf("%s and the departure date is %s", input, answer))
		if err != nil {
			return nil, err
		}
		if info.DepartureDate == "" {
			return nil, ErrMissingDeparture
		}
	}

	if ticketID <= 0 {
		ticketID = c.TicketID()
	}

	return c.confirm(ctx, logger, runID, check.Kind, check, ticketID, info)
}

func (c *Chain) runModify(ctx context.Context, logger *slog.Logger, runID string, check Check, input string) (*Result, error) {
	logger.Info("modification request, extracting ticket info")

	// A first extraction pass pulls the ticket id out of the request text.
	info, err := c.extract(ctx, input)
	if err != nil {
		return nil, err
	}

	ticketID := info.TicketID
	if ticketID == 0 {
		if c.ask == nil {
			return nil, errors.New("modification request without a ticket id")
		}
		answer, err := c.ask("Please enter the ticket ID: ")
		if err != nil {
			return nil, fmt.Errorf("solicit ticket id: %w", err)
		}
		ticketID, err = strconv.Atoi(answer)
		if err != nil {
			return nil, fmt.Errorf("invalid ticket id %q: %w", answer, err)
		}
	}

	existing, err := c.store.Get(ctx, strconv.Itoa(ticketID))
	if errors.Is(err, store.ErrNotFound) {
		// An unknown id starts a fresh record rather than failing the run.
		logger.Warn("no existing booking for ticket id, treating as new record", "ticket_id", ticketID)
		existing = store.Record{}
	} else if err != nil {
		return nil, err
	}

	modified, err := c.extractModify(ctx, input, existing)
	if err != nil {
		return nil, err
	}

	return c.confirm(ctx, logger, runID, check.Kind, check, ticketID, modified)
}

func (c *Chain) extract(ctx context.Context, input string) (TicketInfo, error) {
	info, _, err := llm.Invoke[TicketInfo](ctx, c.llm, llm.StructuredRequest{
		Name:        "extract_ticket_info",
		Schema:      ticketInfoSchema,
		Temperature: extractTemperature,
	}, []llm.Message{
		llm.SystemPrompt(fmt.Sprintf(extractSystemPrompt, dateContext(c.Now()))),
		llm.UserMessage(input),
	})
	if err != nil {
		return TicketInfo{}, err
	}
	info = info.Normalize()
	slog.Debug("extraction complete",
		"source", info.Source,
		"destination", info.Destination,
		"departure_date", info.DepartureDate,
		"return_date", info.ReturnDate,
	)
	return info, nil
}

func (c *Chain) extractModify(ctx context.Context, input string, existing store.Record) (TicketInfo, error) {
	existingJSON, err := json.Marshal(existing)
	if err != nil {
		return TicketInfo{}, fmt.Errorf("encode existing booking: %w", err)
	}

	info, _, err := llm.Invoke[TicketInfo](ctx, c.llm, llm.StructuredRequest{
		Name:        "extract_ticket_info",
		Schema:      ticketInfoSchema,
		Temperature: extractTemperature,
	}, []llm.Message{
		llm.SystemPrompt(fmt.Sprintf(modifySystemPrompt, dateContext(c.Now()), existingJSON)),
		llm.UserMessage(input),
	})
	if err != nil {
		return TicketInfo{}, err
	}
	return info.Normalize(), nil
}

func (c *Chain) confirm(ctx context.Context, logger *slog.Logger, runID string, kind Kind, check Check, ticketID int, info TicketInfo) (*Result, error) {
	record := store.Record{
		Source:        info.Source,
		Destination:   info.Destination,
		DepartureDate: formatDate(info.DepartureDate),
		ReturnDate:    formatDate(info.ReturnDate),
		TicketID:      strconv.Itoa(ticketID),
	}

	merged, err := c.store.Upsert(ctx, record.TicketID, record)
	if err != nil {
		return nil, err
	}
	logger.Info("booking persisted", "ticket_id", merged.TicketID, "kind", kind.String())

	detailsJSON, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("encode flight details: %w", err)
	}

	confirmation, _, err := llm.Invoke[Confirmation](ctx, c.llm, llm.StructuredRequest{
		Name:        "generate_confirmation",
		Schema:      confirmationSchema,
		Temperature: confirmTemperature,
	}, []llm.Message{
		llm.SystemPrompt(fmt.Sprintf(confirmSystemPrompt, kind)),
		llm.UserMessage(string(detailsJSON)),
	})
	if err != nil {
		return nil, err
	}
	logger.Info("confirmation generated", "length", len(confirmation.Message))

	outcome := OutcomeBooked
	if kind == KindModify {
		outcome = OutcomeModified
	}

	return &Result{
		RunID:        runID,
		Outcome:      outcome,
		Check:        check,
		Ticket:       merged,
		Confirmation: confirmation.Message,
	}, nil
}
