package storage

import "time"

// Event records one submitted turn: what the user sent, what came back and
// at what cost. A failed turn carries Error and an empty AssistantResponse.
// It is an operator audit trail, not conversation memory.
type Event struct {
	Timestamp         time.Time `json:"timestamp"`
	SessionID         string    `json:"session_id"`
	Surface           string    `json:"surface"`
	UserMessage       string    `json:"user_message"`
	AssistantResponse string    `json:"assistant_response"`
	Model             string    `json:"model,omitempty"`
	PromptTokens      int       `json:"prompt_tokens,omitempty"`
	CompletionTokens  int       `json:"completion_tokens,omitempty"`
	TotalTokens       int       `json:"total_tokens,omitempty"`
	Error             string    `json:"error,omitempty"`
}

// Recorder abstracts persistence of interaction events.
// LoadInteractions should return events in chronological order.
// Implementations must be safe for concurrent use.
type Recorder interface {
	AppendInteraction(event Event) error
	LoadInteractions() ([]Event, error)
}

// Nop discards everything.
type Nop struct{}

func (Nop) AppendInteraction(Event) error      { return nil }
func (Nop) LoadInteractions() ([]Event, error) { return nil, nil }
