package chat

import (
	"sync"

	"mindease/internal/prompt"
	"mindease/internal/transcript"
)

type State int

const (
	Idle State = iota
	AwaitingReply
)

func (s State) String() string {
	if s == AwaitingReply {
		return "awaiting_reply"
	}
	return "idle"
}

// Usage is the cumulative token spend of a conversation.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Conversation is the UI-side state of one session: the display transcript,
// the onboarding profile and whether a reply is pending.
type Conversation struct {
	id string

	mu         sync.Mutex
	state      State
	transcript []transcript.Message
	profile    prompt.Profile
	usage      Usage
	lastErr    string
}

func NewConversation(id string) *Conversation {
	return &Conversation{id: id}
}

func (c *Conversation) ID() string { return c.id }

func (c *Conversation) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Transcript returns a copy of the display transcript.
func (c *Conversation) Transcript() []transcript.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]transcript.Message, len(c.transcript))
	copy(out, c.transcript)
	return out
}

func (c *Conversation) Profile() prompt.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile
}

func (c *Conversation) SetProfile(p prompt.Profile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profile = p
}

func (c *Conversation) Usage() Usage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usage
}

// LastError is the message of the most recent failed turn, cleared by the
// next successful one.
func (c *Conversation) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// begin moves idle -> awaiting_reply and records the human message.
func (c *Conversation) begin(text string) ([]transcript.Message, prompt.Profile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Idle {
		return nil, prompt.Profile{}, ErrBusy
	}
	c.state = AwaitingReply
	c.transcript = append(c.transcript, transcript.HumanMessage(text))
	snapshot := make([]transcript.Message, len(c.transcript))
	copy(snapshot, c.transcript)
	return snapshot, c.profile, nil
}

func (c *Conversation) succeed(reply string, u Usage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transcript = append(c.transcript, transcript.AIMessage(reply))
	c.usage.PromptTokens += u.PromptTokens
	c.usage.CompletionTokens += u.CompletionTokens
	c.usage.TotalTokens += u.TotalTokens
	c.lastErr = ""
	c.state = Idle
}

func (c *Conversation) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = err.Error()
	c.state = Idle
}

// Sessions lazily creates conversations by id for surfaces that serve many
// users from one process.
type Sessions struct {
	mu    sync.Mutex
	convs map[string]*Conversation
}

func NewSessions() *Sessions {
	return &Sessions{convs: make(map[string]*Conversation)}
}

func (s *Sessions) Get(id string) *Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[id]
	if !ok {
		c = NewConversation(id)
		s.convs[id] = c
	}
	return c
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.convs)
}
