package refine

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type scriptedGenerator struct {
	calls     int
	feedbacks []string // feedback received per call
}

func (g *scriptedGenerator) Generate(_ context.Context, _, feedback string) (Draft, error) {
	g.calls++
	g.feedbacks = append(g.feedbacks, feedback)
	return Draft{Thoughts: "thinking", Text: fmt.Sprintf("draft %d", g.calls)}, nil
}

type scriptedEvaluator struct {
	calls  int
	passOn int // call index (1-based) that returns PASS; 0 never passes
}

func (e *scriptedEvaluator) Evaluate(_ context.Context, _, _ string) (Review, error) {
	e.calls++
	if e.passOn > 0 && e.calls >= e.passOn {
		return Review{Verdict: VerdictPass, Feedback: "good"}, nil
	}
	return Review{Verdict: VerdictNeedsImprovement, Feedback: fmt.Sprintf("fix %d", e.calls)}, nil
}

func TestLoop_PassesOnThirdIteration(t *testing.T) {
	gen := &scriptedGenerator{}
	eval := &scriptedEvaluator{passOn: 3}
	loop := NewLoop(gen, eval)

	result, err := loop.Run(context.Background(), "write a joke about space travel")
	require.NoError(t, err)

	require.Equal(t, OutcomePassed, result.Outcome)
	require.Equal(t, 3, result.Iterations)
	require.Equal(t, 3, gen.calls, "exactly three generate calls")
	require.Equal(t, 3, eval.calls, "exactly three evaluate calls")
	require.Equal(t, "draft 3", result.Draft.Text)

	// Feedback threading: the first call carries none, every later call
	// carries the previous review's feedback.
	require.Equal(t, []string{"", "fix 1", "fix 2"}, gen.feedbacks)
}

func TestLoop_ExhaustsBudget(t *testing.T) {
	gen := &scriptedGenerator{}
	eval := &scriptedEvaluator{passOn: 0}
	loop := NewLoop(gen, eval)
	loop.MaxIterations = 4

	result, err := loop.Run(context.Background(), "task")
	require.NoError(t, err)

	require.Equal(t, OutcomeExhausted, result.Outcome)
	require.Equal(t, 4, result.Iterations)
	require.Equal(t, 4, gen.calls)
	require.Equal(t, VerdictNeedsImprovement, result.Review.Verdict)
	require.Equal(t, "fix 4", result.Review.Feedback, "last review returned to the caller")
}

func TestLoop_DefaultBudget(t *testing.T) {
	gen := &scriptedGenerator{}
	eval := &scriptedEvaluator{passOn: 0}
	loop := &Loop{Generator: gen, Evaluator: eval} // MaxIterations unset

	result, err := loop.Run(context.Background(), "task")
	require.NoError(t, err)
	require.Equal(t, OutcomeExhausted, result.Outcome)
	require.Equal(t, DefaultMaxIterations, result.Iterations)
}

type failingGenerator struct{}

func (failingGenerator) Generate(context.Context, string, string) (Draft, error) {
	return Draft{}, fmt.Errorf("model unreachable")
}

func TestLoop_GeneratorErrorPropagates(t *testing.T) {
	loop := NewLoop(failingGenerator{}, &scriptedEvaluator{passOn: 1})

	_, err := loop.Run(context.Background(), "task")
	require.Error(t, err)
	require.Contains(t, err.Error(), "generate")
}

func TestVerdict_Unmarshal(t *testing.T) {
	tests := []struct {
		in      string
		want    Verdict
		wantErr bool
	}{
		{`"PASS"`, VerdictPass, false},
		{`"NEEDS_IMPROVEMENT"`, VerdictNeedsImprovement, false},
		{`"NEEDS IMPROVEMENT"`, VerdictNeedsImprovement, false},
		{`"fail"`, VerdictFail, false},
		{`"MAYBE"`, 0, true},
	}
	for _, tt := range tests {
		var v Verdict
		err := json.Unmarshal([]byte(tt.in), &v)
		if tt.wantErr {
			require.Error(t, err, "unmarshal %s", tt.in)
			continue
		}
		require.NoError(t, err, "unmarshal %s", tt.in)
		require.Equal(t, tt.want, v)
	}
}
