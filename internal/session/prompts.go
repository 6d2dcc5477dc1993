package session

// System prompt and fallback texts for the chat path. The fallback is
// what the operator sees when the model backend is unreachable; it must
// never look like clinical advice.
const (
	systemPrompt = "You are a clinical assistant for hospital staff. " +
		"You help clinicians review patients, draft documentation and reason about next steps. " +
		"You are advisory only: every output is verified by a clinician and you never state a " +
		"definitive diagnosis or treatment decision. Keep answers short and concrete. " +
		"Bracketed annotations in the user's message identify which patient or result is meant."

	chatFallback = "The assistant service is unreachable right now. " +
		"Your message was kept in the conversation; please retry in a moment."

	classifyPromptPrefix = "Classify the main clinical topic of this dictation fragment " +
		"in one or two words (e.g. fever, chest pain, discharge):\n\n"
)
