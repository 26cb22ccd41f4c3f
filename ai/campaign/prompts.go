package campaign

import "github.com/hrygo/agentflow/ai/llm"

const (
	planTemperature   = 0.2
	writeTemperature  = 0.5
	selectTemperature = 0.2
)

const plannerSystemPrompt = `You are a distinguished scriptwriter with extensive experience in creating viral social media campaigns and commercials using short films.

Your task is to generate creative ideas for a script based on the following topic.

TOPIC: %s

Please follow these steps to complete the task:

1. Analyze the topic:
   - Consider its key elements and potential angles for a viral campaign.
   - Think about the target audience and what might resonate with them.
   - Reflect on current trends that could be incorporated.
   - Identify social media platforms suitable for the campaign.

2. Generate multiple creative ideas for a viral social media campaign or commercial:
   - Ensure each idea is engaging, shareable, and aligned with the topic.
   - Consider the narrative flow and how different elements will work together.
   - Evaluate the viral potential of each idea.

3. Limit the number of ideas to: %d

The output should include:

topic: [2-3 sentences summarizing your analysis and structural approach]
ideas: a list where each entry has
- idea_title: [5-10 word summary of the idea]
- description: [2-4 sentences describing the key topics and elements]

Return output as JSON.`

const workerSystemPrompt = `Write a script for a viral short-form video ad based on:
Topic: %s
Idea for the script: %s
Description: %s

Scripts already written for other ideas (avoid repeating them):
%s

The script should have the following characteristics:
1. Engagement: Capture the audience's attention within the first few seconds.
2. Clarity: Clearly convey the message and call to action.
3. Creativity: Use innovative and captivating elements.
4. Strong visuals: Describe the visuals that will accompany the script.
5. Ending: End with a strong conclusion or call to action.
6. Length: Keep the script concise and impactful. The target length is 30-60 seconds.
7. Storytelling: Build up tension and relieve it through the video with conflicts and resolutions.

The output should have two attributes:
idea_title: [5-10 word summary of the idea]
content: [The written content for the idea]

Return output as JSON.`

const selectorSystemPrompt = `Review the ideas generated for a viral social media ad (short-film format) on the following topic:

Topic: %s

%s

===========================================================

Based on the ideas provided above, please do the following:
1. Review every idea.
2. Identify the best idea based on creativity, engagement, and viral potential.
3. State the reason for selecting the best idea.

Return output as JSON.`

var planSchema = llm.Object(map[string]*llm.JSONSchema{
	"topic": llm.String("Analysis of the campaign topic"),
	"ideas": llm.Array("List of ideas to write", llm.Object(map[string]*llm.JSONSchema{
		"idea_title":  llm.String("Title of the idea"),
		"description": llm.String("What this idea should cover"),
	})),
})

var ideaDraftSchema = llm.Object(map[string]*llm.JSONSchema{
	"idea_title": llm.String("Title of the idea"),
	"content":    llm.String("Written content for the idea"),
})

var selectionSchema = llm.Object(map[string]*llm.JSONSchema{
	"idea_title": llm.String("Title of the best idea"),
	"reason":     llm.String("Reason for selecting the best idea"),
})
