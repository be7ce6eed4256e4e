package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptSystem holds the grounding rules sent as system instructions.
	PromptSystem = "system"

	// PromptAnswer is the grounded question-answering template.
	// It expects {{context}} and {{question}} placeholders.
	PromptAnswer = "answer"
)

// NotInContextMarker is the exact reply the answer prompt asks for when the
// context does not contain the answer.
const NotInContextMarker = "NOT_IN_CONTEXT"

// DefaultSystemPrompt is the built-in PromptSystem template.
const DefaultSystemPrompt = `You are an AI assistant specialised in answering questions about the user's email.
Answer the question using ONLY the email context you are given. Do not use prior knowledge and do not guess.
If the context does not contain the answer, reply with exactly ` + NotInContextMarker + ` and nothing else.
Messages in the context are separated by lines reading "-----8<----- mailqa:unit -----8<-----".`

// DefaultAnswerPrompt is the built-in PromptAnswer template.
const DefaultAnswerPrompt = `Context:
{{context}}

Question: {{question}}

Answer:`

// PromptStoreAware is implemented by services whose prompt templates can be
// customised by injecting a PromptStore after construction.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store. Without one the service uses
	// its built-in templates.
	SetPromptStore(store PromptStore)
}
