// Package campaign implements the orchestrator-worker workflow: one planning
// call breaks a topic into ideas, one worker call per idea writes it out with
// a digest of everything written so far, and one selection call picks the
// best result.
package campaign

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/hrygo/agentflow/ai/llm"
)

// Idea is one planned unit of work.
type Idea struct {
	Title       string `json:"idea_title"`
	Description string `json:"description"`
}

// Plan is the orchestrator's contract.
type Plan struct {
	Topic string `json:"topic"`
	Ideas []Idea `json:"ideas"`
}

// IdeaDraft is a worker's contract: one written-out idea.
type IdeaDraft struct {
	Title   string `json:"idea_title"`
	Content string `json:"content"`
}

// Selection is the final step's contract.
type Selection struct {
	Title  string `json:"idea_title"`
	Reason string `json:"reason"`
}

// Result is everything a campaign run produced.
type Result struct {
	RunID  string
	Plan   Plan
	Drafts []IdeaDraft // in plan order; a duplicate title overwrites its slot
	Best   Selection
}

// Orchestrator runs the plan/write/select pipeline.
type Orchestrator struct {
	llm llm.Service
}

// New creates a campaign orchestrator.
func New(svc llm.Service) *Orchestrator {
	return &Orchestrator{llm: svc}
}

// Generate plans numIdeas ideas for the topic, writes each in plan order,
// and selects the best. Workers run sequentially: each receives the content
// of all ideas completed strictly before it so it can avoid duplication.
func (o *Orchestrator) Generate(ctx context.Context, topic string, numIdeas int) (*Result, error) {
	runID := uuid.NewString()
	logger := slog.With("run_id", runID, "workflow", "campaign")

	logger.Info("planning campaign ideas", "topic", topic, "requested", numIdeas)
	plan, err := o.plan(ctx, topic, numIdeas)
	if err != nil {
		return nil, err
	}
	if len(plan.Ideas) == 0 {
		return nil, fmt.Errorf("plan contains no ideas for topic %q", topic)
	}
	if len(plan.Ideas) != numIdeas {
		logger.Warn("plan size differs from requested count",
			"requested", numIdeas, "planned", len(plan.Ideas))
	}

	// Accumulate drafts keyed by title, preserving plan order. A later idea
	// with a duplicate title overwrites the earlier draft.
	var order []string
	drafts := make(map[string]IdeaDraft)
	for _, idea := range plan.Ideas {
		logger.Info("writing idea", "title", idea.Title)
		draft, err := o.write(ctx, topic, idea, order, drafts)
		if err != nil {
			return nil, err
		}
		if _, seen := drafts[idea.Title]; !seen {
			order = append(order, idea.Title)
		}
		drafts[idea.Title] = draft
	}

	logger.Info("selecting the best idea", "drafts", len(order))
	best, err := o.selectBest(ctx, topic, order, drafts)
	if err != nil {
		return nil, err
	}
	logger.Info("best idea selected", "title", best.Title)

	result := &Result{RunID: runID, Plan: plan, Best: best}
	for _, title := range order {
		result.Drafts = append(result.Drafts, drafts[title])
	}
	return result, nil
}

func (o *Orchestrator) plan(ctx context.Context, topic string, numIdeas int) (Plan, error) {
	plan, _, err := llm.Invoke[Plan](ctx, o.llm, llm.StructuredRequest{
		Name:        "orchestrator_plan",
		Schema:      planSchema,
		Temperature: planTemperature,
	}, []llm.Message{
		llm.SystemPrompt(fmt.Sprintf(plannerSystemPrompt, topic, numIdeas)),
	})
	if err != nil {
		return Plan{}, err
	}
	return plan, nil
}

func (o *Orchestrator) write(ctx context.Context, topic string, idea Idea, order []string, drafts map[string]IdeaDraft) (IdeaDraft, error) {
	draft, _, err := llm.Invoke[IdeaDraft](ctx, o.llm, llm.StructuredRequest{
		Name:        "idea_content",
		Schema:      ideaDraftSchema,
		Temperature: writeTemperature,
	}, []llm.Message{
		llm.SystemPrompt(fmt.Sprintf(workerSystemPrompt,
			topic, idea.Title, idea.Description, priorDigest(order, drafts))),
	})
	if err != nil {
		return IdeaDraft{}, err
	}
	return draft, nil
}

func (o *Orchestrator) selectBest(ctx context.Context, topic string, order []string, drafts map[string]IdeaDraft) (Selection, error) {
	var b strings.Builder
	for _, title := range order {
		fmt.Fprintf(&b, "=== Idea: %s ===\nContent: %s\n\n", title, drafts[title].Content)
	}

	best, _, err := llm.Invoke[Selection](ctx, o.llm, llm.StructuredRequest{
		Name:        "best_idea",
		Schema:      selectionSchema,
		Temperature: selectTemperature,
	}, []llm.Message{
		llm.SystemPrompt(fmt.Sprintf(selectorSystemPrompt, topic, b.String())),
	})
	if err != nil {
		return Selection{}, err
	}
	return best, nil
}

// priorDigest renders the drafts completed so far for the next worker's
// context. Empty when the first worker runs.
func priorDigest(order []string, drafts map[string]IdeaDraft) string {
	if len(order) == 0 {
		return "No ideas have been written yet."
	}
	var b strings.Builder
	for _, title := range order {
		fmt.Fprintf(&b, "Idea: %s\n%s\n==========\n", title, drafts[title].Content)
	}
	return b.String()
}
