package extract

import "fmt"

// jsonMarker is emitted by the worker immediately before the structured
// payload; repair discards everything up to and including it.
const jsonMarker = "<JSON>"

const promptTemplate = `You are analyzing player reviews. Follow the rules strictly.

HERE IS THE REVIEW:
%s
END REVIEW.

Extract structured insights and return valid JSON with these keys:
- original_review: the review text
- summary: one-sentence summary of the opinion
- likes: what the player liked most
- dislikes: what the player disliked most
- task: specific technical or design task if explicitly mentioned, else "None"
- confidence: a number from 0.0 to 1.0 showing how confident you are that the "task" field is correct,
  based only on explicit evidence in the review (1.0 = fully clear, 0.0 = pure guess)

When identifying the "task" field:
- If the review directly mentions a technical or gameplay issue (e.g., desync, lag, crashes, unbalanced weapons),
  infer the most relevant and specific developer action that would resolve that issue
  (e.g., "optimize server synchronization" or "rebalance weapon damage curves").
- If the review expresses only vague dissatisfaction with no identifiable issue, set task="None".
- Do NOT invent tasks unrelated to concrete problems.

Rules:
- Never infer a task that is not clearly described.
- If no task is mentioned, set task="None" and confidence=0.0.
- Do NOT include markdown, code fences, or extra commentary.

Now return the JSON object (nothing else). Begin immediately after the marker ` + jsonMarker + `:
` + jsonMarker + `
`

// BuildPrompt renders the extraction instructions around one review text.
func BuildPrompt(text string) string {
	return fmt.Sprintf(promptTemplate, text)
}
