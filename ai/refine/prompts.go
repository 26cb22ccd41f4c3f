package refine

import "github.com/hrygo/agentflow/ai/llm"

const (
	generateTemperature = 0.5
	evaluateTemperature = 0.0
)

const generatorSystemPrompt = `Your goal is to write a joke based on the user input.
If there is feedback from your previous attempt, reflect on it to improve your answer.

%s

Output your answer concisely with the following attributes:

thoughts: [Your understanding of the given user input and feedback and how you plan to improve]
text: [The joke that you have generated]

Return as JSON.`

const evaluatorSystemPrompt = `Evaluate the following joke for:
1. Structure:
    a. Setup: The setup should clearly introduce the context, making the audience ready for the punchline. The joke should align with the user input.
    b. Punchline: The punchline should be both surprising and logically connected to the setup. It needs to balance originality with relatability.
2. Clarity and Relatability:
    a. The joke should be understandable to most of its intended audience, avoiding overly niche references unless it targets a specific group.
    b. Cultural context is crucial; humor can vary widely across different cultures and regions.
3. Delivery: Timing, tone, and rhythm significantly impact the effectiveness of the joke.
4. Relevance and Timeliness: Consider whether the joke resonates with the user input. Avoid outdated references that might become irrelevant or offensive over time.
5. Engagement: Determine if the joke aims to make people laugh, think, or both.

You should be evaluating only and not attempting to rewrite the joke.
Only output "PASS" if all criteria are met and you have no further suggestions for improvement.

Output your evaluation concisely in the following format:

evaluation_result: PASS, NEEDS_IMPROVEMENT, or FAIL
feedback: [What needs improvement and why.]

user input: %s
joke: %s

Return output as JSON.`

var draftSchema = llm.Object(map[string]*llm.JSONSchema{
	"thoughts": llm.String("Thought process followed for generating the answer"),
	"text":     llm.String("The generated answer based on user input"),
})

var reviewSchema = llm.Object(map[string]*llm.JSONSchema{
	"evaluation_result": llm.StringEnum("Whether the answer passed, failed or needs improvement according to the given requirements", "PASS", "NEEDS_IMPROVEMENT", "FAIL"),
	"feedback":          llm.String("Feedback on the answer"),
})
