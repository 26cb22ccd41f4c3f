// Package refine implements the generate/critique feedback loop: a generator
// drafts an artifact, an evaluator grades it against a rubric, and the
// generator re-runs with the evaluator's feedback until the draft passes or
// the iteration budget runs out.
package refine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/hrygo/agentflow/ai/llm"
)

// Verdict is the evaluator's judgment on a draft.
type Verdict int

const (
	VerdictPass Verdict = iota + 1
	VerdictNeedsImprovement
	VerdictFail
)

func (v Verdict) String() string {
	switch v {
	case VerdictPass:
		return "PASS"
	case VerdictNeedsImprovement:
		return "NEEDS_IMPROVEMENT"
	case VerdictFail:
		return "FAIL"
	default:
		return fmt.Sprintf("Verdict(%d)", int(v))
	}
}

// UnmarshalJSON accepts the label variants models actually emit.
func (v *Verdict) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", "_")) {
	case "PASS":
		*v = VerdictPass
	case "NEEDS_IMPROVEMENT":
		*v = VerdictNeedsImprovement
	case "FAIL":
		*v = VerdictFail
	default:
		return fmt.Errorf("unrecognized verdict %q", s)
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (v Verdict) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

// Draft is the generator's contract.
type Draft struct {
	// Thoughts is the generator's stated reasoning, kept for logging.
	Thoughts string `json:"thoughts"`

	// Text is the candidate artifact.
	Text string `json:"text"`
}

// Review is the evaluator's contract.
type Review struct {
	Verdict  Verdict `json:"evaluation_result"`
	Feedback string  `json:"feedback"`
}

// Generator produces a candidate artifact for a task. feedback is empty on
// the first iteration and carries the prior Review's feedback afterwards.
type Generator interface {
	Generate(ctx context.Context, task, feedback string) (Draft, error)
}

// Evaluator grades a draft against the task.
type Evaluator interface {
	Evaluate(ctx context.Context, task, draft string) (Review, error)
}

// Outcome is how a refinement run ended.
type Outcome int

const (
	// OutcomePassed means the evaluator accepted a draft.
	OutcomePassed Outcome = iota + 1

	// OutcomeExhausted means the iteration budget ran out without a pass.
	// The last draft and review are still returned.
	OutcomeExhausted
)

func (o Outcome) String() string {
	switch o {
	case OutcomePassed:
		return "passed"
	case OutcomeExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Result is the terminal state of a refinement run.
type Result struct {
	RunID      string
	Outcome    Outcome
	Draft      Draft
	Review     Review
	Iterations int // generate/evaluate round trips performed
}

// DefaultMaxIterations bounds the loop when the caller does not.
const DefaultMaxIterations = 5

// Loop alternates a Generator and an Evaluator until the verdict is PASS or
// MaxIterations round trips have run.
type Loop struct {
	Generator     Generator
	Evaluator     Evaluator
	MaxIterations int
}

// NewLoop creates a refinement loop with the default iteration budget.
func NewLoop(g Generator, e Evaluator) *Loop {
	return &Loop{Generator: g, Evaluator: e, MaxIterations: DefaultMaxIterations}
}

// Run executes the loop for one task.
func (l *Loop) Run(ctx context.Context, task string) (*Result, error) {
	maxIterations := l.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	runID := uuid.NewString()
	logger := slog.With("run_id", runID, "workflow", "refine")

	var (
		draft    Draft
		review   Review
		feedback string
	)

	for i := 1; i <= maxIterations; i++ {
		var err error
		draft, err = l.Generator.Generate(ctx, task, feedback)
		if err != nil {
			return nil, fmt.Errorf("generate (iteration %d): %w", i, err)
		}
		logger.Info("draft generated", "iteration", i, "length", len(draft.Text))

		review, err = l.Evaluator.Evaluate(ctx, task, draft.Text)
		if err != nil {
			return nil, fmt.Errorf("evaluate (iteration %d): %w", i, err)
		}
		logger.Info("draft evaluated",
			"iteration", i,
			"verdict", review.Verdict.String(),
			"feedback", review.Feedback,
		)

		if review.Verdict == VerdictPass {
			return &Result{
				RunID:      runID,
				Outcome:    OutcomePassed,
				Draft:      draft,
				Review:     review,
				Iterations: i,
			}, nil
		}

		feedback = review.Feedback
	}

	logger.Warn("iteration budget exhausted without a pass", "max_iterations", maxIterations)
	return &Result{
		RunID:      runID,
		Outcome:    OutcomeExhausted,
		Draft:      draft,
		Review:     review,
		Iterations: maxIterations,
	}, nil
}

// NewGenerator returns an LLM-backed Generator.
func NewGenerator(svc llm.Service) Generator {
	return &llmGenerator{llm: svc}
}

// NewEvaluator returns an LLM-backed Evaluator.
func NewEvaluator(svc llm.Service) Evaluator {
	return &llmEvaluator{llm: svc}
}

type llmGenerator struct {
	llm llm.Service
}

func (g *llmGenerator) Generate(ctx context.Context, task, feedback string) (Draft, error) {
	draft, _, err := llm.Invoke[Draft](ctx, g.llm, llm.StructuredRequest{
		Name:        "generated_draft",
		Schema:      draftSchema,
		Temperature: generateTemperature,
	}, []llm.Message{
		llm.SystemPrompt(fmt.Sprintf(generatorSystemPrompt, feedbackSection(feedback))),
		llm.UserMessage(task),
	})
	if err != nil {
		return Draft{}, err
	}
	return draft, nil
}

func feedbackSection(feedback string) string {
	if feedback == "" {
		return "This is your first attempt; there is no feedback yet."
	}
	return "Feedback: " + feedback
}

type llmEvaluator struct {
	llm llm.Service
}

func (e *llmEvaluator) Evaluate(ctx context.Context, task, draft string) (Review, error) {
	review, _, err := llm.Invoke[Review](ctx, e.llm, llm.StructuredRequest{
		Name:        "draft_review",
		Schema:      reviewSchema,
		Temperature: evaluateTemperature,
	}, []llm.Message{
		llm.SystemPrompt(fmt.Sprintf(evaluatorSystemPrompt, task, draft)),
	})
	if err != nil {
		return Review{}, err
	}
	return review, nil
}
