package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hrygo/agentflow/ai/campaign"
	"github.com/hrygo/agentflow/ai/refine"
)

func newCampaignCmd() *cobra.Command {
	var (
		topic    string
		numIdeas int
	)

	cmd := &cobra.Command{
		Use:   "campaign",
		Short: "Plan campaign ideas for a topic, write each one, and select the best",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := loadProfile()
			if err != nil {
				return err
			}
			svc, err := newLLMService(p)
			if err != nil {
				return err
			}

			result, err := campaign.New(svc).Generate(cmd.Context(), topic, numIdeas)
			if err != nil {
				return err
			}

			for _, draft := range result.Drafts {
				fmt.Printf("=== %s ===\n%s\n\n", draft.Title, draft.Content)
			}
			fmt.Printf("Best idea: %s\nReason: %s\n", result.Best.Title, result.Best.Reason)
			return nil
		},
	}

	cmd.Flags().StringVar(&topic, "topic", "A new smartphone named z1.0 from the company called Z", "campaign topic")
	cmd.Flags().IntVar(&numIdeas, "ideas", 3, "number of ideas to plan")
	return cmd
}

func newRefineCmd() *cobra.Command {
	var (
		task          string
		maxIterations int
	)

	cmd := &cobra.Command{
		Use:   "refine",
		Short: "Generate a draft and refine it through evaluator feedback until it passes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := loadProfile()
			if err != nil {
				return err
			}
			svc, err := newLLMService(p)
			if err != nil {
				return err
			}

			loop := refine.NewLoop(refine.NewGenerator(svc), refine.NewEvaluator(svc))
			loop.MaxIterations = maxIterations

			result, err := loop.Run(cmd.Context(), task)
			if err != nil {
				return err
			}

			fmt.Printf("Outcome: %s after %d iteration(s)\n\n%s\n", result.Outcome, result.Iterations, result.Draft.Text)
			if result.Outcome == refine.OutcomeExhausted {
				fmt.Printf("\nLast feedback: %s\n", result.Review.Feedback)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&task, "task", "Write a joke about space travel", "task description for the generator")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", refine.DefaultMaxIterations, "iteration budget for the feedback loop")
	return cmd
}
