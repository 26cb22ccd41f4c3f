package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hrygo/agentflow/ai/booking"
	"github.com/hrygo/agentflow/ai/llm"
	"github.com/hrygo/agentflow/store"
)

func newBookCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "book [request]",
		Short: "Run the gated booking chain: classify, route (new or modify), extract, confirm",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			chain, _, st, err := buildChain()
			if err != nil {
				return err
			}
			defer func() {
				if err := st.Close(); err != nil {
					slog.Warn("failed to close booking store", "error", err)
				}
			}()

			input, err := requestText(args)
			if err != nil {
				return err
			}

			result, err := chain.Run(cmd.Context(), input)
			if err != nil {
				return err
			}

			fmt.Println(result.Confirmation)
			return nil
		},
	}
}

func newTripCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trip [request]",
		Short: "Book a flight and a hotel concurrently, then combine the confirmations",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			chain, svc, st, err := buildChain()
			if err != nil {
				return err
			}
			defer func() {
				if err := st.Close(); err != nil {
					slog.Warn("failed to close booking store", "error", err)
				}
			}()

			input, err := requestText(args)
			if err != nil {
				return err
			}

			trip := booking.NewTrip(svc, chain)
			result, err := trip.Run(cmd.Context(), input)
			if err != nil {
				return err
			}

			fmt.Println(result.Combined)
			return nil
		},
	}
}

func buildChain() (*booking.Chain, llm.Service, store.Store, error) {
	p, err := loadProfile()
	if err != nil {
		return nil, nil, nil, err
	}
	svc, err := newLLMService(p)
	if err != nil {
		return nil, nil, nil, err
	}
	st, err := openStore(p)
	if err != nil {
		return nil, nil, nil, err
	}
	return booking.NewChain(svc, st, stdinAsker), svc, st, nil
}

// requestText takes the request from the arguments, or solicits it
// interactively when none was given.
func requestText(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	return stdinAsker("Please enter your request: ")
}
