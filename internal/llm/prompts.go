package llm

import "fmt"

// Refusal is the reply a conversation gives when the document lacks the answer.
const Refusal = "I don't know."

const SummarizeInstruction = `You will be given a text. Write a concise summary that captures its most important ideas, events and arguments.
Use only what the text states explicitly; add no outside information, opinions or interpretations.

The summary must:
- be clear and concise
- keep every major point
- highlight the key ideas, facts or arguments
- leave out minor details, examples and filler
- use bullet points only when they make it clearer`

const ExtractInstruction = `You will be given a text. Extract only facts that the text states word for word.
Do not infer, guess, interpret or fill in missing details.

Return the facts as a single JSON object of key/value pairs taken directly from the text.
Values must be copied exactly from the text, without rephrasing.
If the text contains no facts, return {}.

Return the JSON object only: no code fences, backticks, comments or explanations.`

// ChatInstruction builds the system instruction for a conversation about document.
func ChatInstruction(document string) string {
	return fmt.Sprintf(`Answer questions using only information explicitly found in the text below.
If the answer is not stated directly in the text, reply only: %q
Do not guess or infer beyond the text.

TEXT:
%s`, Refusal, document)
}
