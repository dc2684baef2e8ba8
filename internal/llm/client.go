package llm

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Client is a hosted chat model. Implementations must be safe for concurrent use.
type Client interface {
	Generate(ctx context.Context, messages []Message) (Response, error)
}

// splitSystem separates leading system messages from the conversation turns.
// Providers that take the instruction out of band (Gemini) use it.
func splitSystem(messages []Message) (string, []Message) {
	var system string
	i := 0
	for ; i < len(messages) && messages[i].Role == RoleSystem; i++ {
		if system != "" {
			system += "\n\n"
		}
		system += messages[i].Content
	}
	return system, messages[i:]
}
