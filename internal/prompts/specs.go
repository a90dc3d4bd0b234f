package prompts

const summarizeSpec = `Respond with the summary as plain text.

Behavioral constraints:
- Return the summary directly, with no preamble and no closing commentary
- Do not introduce facts that are absent from the provided text
- Keep the summary concise: a short paragraph covering the key points`

const qaSpec = `Respond with the answer as plain text.

Behavioral constraints:
- Use ONLY information from the context passages provided with the query
- When the context does not contain the answer, say so plainly rather than guessing
- Do not invent citations or reference passages that were not provided`

const draftSpec = `If you need to use a tool to gather more information or perform an action before drafting the note,
you MUST respond ONLY with a single JSON object with two keys: 'tool_name' and 'tool_args'.
The 'tool_name' must be one of the tool names listed above.
The 'tool_args' must be a JSON object containing the arguments for that tool, matching the schema provided.

Example of a tool call:
{
  "tool_name": "reserve_prediction",
  "tool_args": {"feature1": 2.0, "feature2": 1.5, "feature3": 3.0, "injury_type": "WHIPLASH"}
}

If you have sufficient information from the context, summary, and Q&A, or after receiving tool results,
proceed to draft the strategy note. The strategy note should be well-structured and cover all
relevant aspects of the claim.`

var specs = map[Stage]string{
	StageSummarize: summarizeSpec,
	StageQA:        qaSpec,
	StageDraft:     draftSpec,
}

// Spec returns the hardcoded specification for a pipeline stage.
// Specifications define the expected output format and behavioral constraints;
// unlike instructions, they cannot be overridden.
func Spec(stage Stage) (string, error) {
	text, ok := specs[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}
