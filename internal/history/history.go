// Package history keeps the model-facing conversation log of every session.
//
// Logs are append-only and live for the lifetime of the process. There is no
// eviction or size bound.
package history

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/memory"
)

// ErrUnavailable is returned once the store has been closed.
var ErrUnavailable = errors.New("history store unavailable")

type Role string

const (
	RoleHuman  Role = Role(llms.ChatMessageTypeHuman)
	RoleAI     Role = Role(llms.ChatMessageTypeAI)
	RoleSystem Role = Role(llms.ChatMessageTypeSystem)
)

type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// chatLog is the slice of langchaingo's chat history a session uses.
type chatLog interface {
	AddMessage(ctx context.Context, msg llms.ChatMessage) error
	Messages(ctx context.Context) ([]llms.ChatMessage, error)
}

var _ chatLog = (*memory.ChatMessageHistory)(nil)

// Session is a handle to one session's log.
type Session struct {
	id  string
	mu  sync.Mutex
	log chatLog
}

func (s *Session) ID() string { return s.id }

func (s *Session) Messages(ctx context.Context) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs, err := s.log.Messages(ctx)
	if err != nil {
		return nil, fmt.Errorf("read history %s: %w", s.id, err)
	}
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, Message{Role: Role(m.GetType()), Text: m.GetContent()})
	}
	return out, nil
}

func (s *Session) Len(ctx context.Context) (int, error) {
	msgs, err := s.Messages(ctx)
	if err != nil {
		return 0, err
	}
	return len(msgs), nil
}

func (s *Session) append(ctx context.Context, msgs ...Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range msgs {
		if err := s.log.AddMessage(ctx, toChatMessage(m)); err != nil {
			return fmt.Errorf("append history %s: %w", s.id, err)
		}
	}
	return nil
}

func toChatMessage(m Message) llms.ChatMessage {
	switch m.Role {
	case RoleAI:
		return llms.AIChatMessage{Content: m.Text}
	case RoleSystem:
		return llms.SystemChatMessage{Content: m.Text}
	default:
		return llms.HumanChatMessage{Content: m.Text}
	}
}

// Store maps session ids to their logs. Sessions are guarded individually so
// work on one id never blocks another.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	closed   bool
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// GetOrCreate returns the session for id, creating it when absent. A new
// session is seeded with greeting as an ai message unless greeting is empty.
// Seeding happens at most once per id.
func (s *Store) GetOrCreate(ctx context.Context, id, greeting string) (*Session, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, ErrUnavailable
	}
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return sess, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrUnavailable
	}
	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}
	sess = &Session{id: id, log: memory.NewChatMessageHistory()}
	if greeting != "" {
		if err := sess.append(ctx, Message{Role: RoleAI, Text: greeting}); err != nil {
			return nil, err
		}
	}
	s.sessions[id] = sess
	return sess, nil
}

// Append adds messages to the log of id in order. The session is created
// without a greeting if it does not exist yet.
func (s *Store) Append(ctx context.Context, id string, msgs ...Message) error {
	sess, err := s.GetOrCreate(ctx, id, "")
	if err != nil {
		return err
	}
	return sess.append(ctx, msgs...)
}

// Messages returns a copy of the log for id. Unknown ids yield an empty log
// and are not created.
func (s *Store) Messages(ctx context.Context, id string) ([]Message, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, ErrUnavailable
	}
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return []Message{}, nil
	}
	return sess.Messages(ctx)
}

// Has reports whether id has been created.
func (s *Store) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[id]
	return ok
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close makes the store unavailable. Subsequent calls fail with ErrUnavailable.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}
