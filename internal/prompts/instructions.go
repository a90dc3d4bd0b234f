package prompts

const summarizeInstructions = `You are an expert summarisation assistant.
Please provide a concise summary of the following text.
Focus on the key information and main points.
The summary should be factual and based ONLY on the provided text.`

const qaInstructions = `Answer the query using ONLY information from the context above. If the answer is not in the context, say 'I don't know based on the provided documents.'`

const draftInstructions = `You are a helpful assistant for drafting strategy notes for insurance claims.
Your goal is to create a comprehensive draft strategy note based on the provided context,
summary, and Q&A pairs.`

var instructions = map[Stage]string{
	StageSummarize: summarizeInstructions,
	StageQA:        qaInstructions,
	StageDraft:     draftInstructions,
}

// Instructions returns the hardcoded default instructions for a pipeline stage.
// Returns ErrInvalidStage if the stage is not recognized.
func Instructions(stage Stage) (string, error) {
	text, ok := instructions[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}
