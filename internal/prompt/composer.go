package prompt

import (
	"context"
	"fmt"

	"mindease/internal/history"
	"mindease/internal/llm"
	"mindease/internal/transcript"
)

// SessionSource is the read side of the history store.
type SessionSource interface {
	GetOrCreate(ctx context.Context, id, greeting string) (*history.Session, error)
}

// Request is everything sent to the model for one turn.
type Request struct {
	System  string
	History []history.Message
	User    string
}

// Messages flattens the request into provider-neutral chat messages.
func (r Request) Messages() []llm.Message {
	out := make([]llm.Message, 0, len(r.History)+2)
	if r.System != "" {
		out = append(out, llm.Message{Role: llm.RoleSystem, Content: r.System})
	}
	for _, m := range r.History {
		out = append(out, llm.Message{Role: modelRole(m.Role), Content: m.Text})
	}
	return append(out, llm.Message{Role: llm.RoleUser, Content: r.User})
}

func modelRole(r history.Role) string {
	switch r {
	case history.RoleAI:
		return llm.RoleAssistant
	case history.RoleSystem:
		return llm.RoleSystem
	default:
		return llm.RoleUser
	}
}

type Composer struct {
	persona Persona
	store   SessionSource
}

func NewComposer(persona Persona, store SessionSource) *Composer {
	return &Composer{persona: persona, store: store}
}

func (c *Composer) Persona() Persona { return c.persona }

// System builds the instruction text: the persona, followed by the derived
// context when summarisation is on and there is something to summarise.
func (c *Composer) System(msgs []transcript.Message, p Profile) string {
	sys := c.persona.Instruction(p)
	if !c.persona.Summarize {
		return sys
	}
	if derived := DerivedContext(msgs, c.persona.Window()); derived != "" {
		sys += "\n\n" + contextHeader + "\n" + derived
	}
	return sys
}

// Compose reads the prior history of sessionID and builds the request for
// text. It never writes to the history beyond the one-time greeting seed.
func (c *Composer) Compose(ctx context.Context, sessionID string, msgs []transcript.Message, p Profile, text string) (Request, error) {
	sess, err := c.store.GetOrCreate(ctx, sessionID, c.persona.GreetingFor(p))
	if err != nil {
		return Request{}, fmt.Errorf("load history: %w", err)
	}
	prior, err := sess.Messages(ctx)
	if err != nil {
		return Request{}, fmt.Errorf("load history: %w", err)
	}
	return Request{
		System:  c.System(msgs, p),
		History: prior,
		User:    text,
	}, nil
}
