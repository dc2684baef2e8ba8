// Package chat runs one conversational turn: it records the user's message,
// asks the model for a reply and commits the exchange to history.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"mindease/internal/history"
	"mindease/internal/llm"
	"mindease/internal/prompt"
	"mindease/internal/storage"
)

var (
	ErrEmptyInput = errors.New("message is empty")
	ErrBusy       = errors.New("a reply is still pending")
)

// Turn is the outcome of a successful submission.
type Turn struct {
	Reply string
	Model string
	Usage Usage
}

type Options struct {
	// AllowBlank forwards whitespace-only input to the model instead of
	// rejecting it with ErrEmptyInput.
	AllowBlank bool
	// Surface tags audit events ("web", "telegram", ...).
	Surface string
}

type Service struct {
	composer *prompt.Composer
	store    *history.Store
	client   llm.Client
	recorder storage.Recorder
	opts     Options
}

func NewService(composer *prompt.Composer, store *history.Store, client llm.Client, recorder storage.Recorder, opts Options) *Service {
	if recorder == nil {
		recorder = storage.Nop{}
	}
	return &Service{composer: composer, store: store, client: client, recorder: recorder, opts: opts}
}

func (s *Service) Persona() prompt.Persona { return s.composer.Persona() }

func (s *Service) Store() *history.Store { return s.store }

// WithSurface returns a copy of s whose audit events carry surface.
func (s *Service) WithSurface(surface string) *Service {
	cp := *s
	cp.opts.Surface = surface
	return &cp
}

// Greet makes sure the session exists, seeding the persona greeting when the
// profile allows it, and returns the current history.
func (s *Service) Greet(ctx context.Context, conv *Conversation) ([]history.Message, error) {
	greeting := s.composer.Persona().GreetingFor(conv.Profile())
	if greeting == "" && s.composer.Persona().RequireProfile {
		return s.store.Messages(ctx, conv.ID())
	}
	sess, err := s.store.GetOrCreate(ctx, conv.ID(), greeting)
	if err != nil {
		return nil, err
	}
	return sess.Messages(ctx)
}

// Submit runs one turn for conv. On a model failure the human message stays
// in the transcript and history is left untouched.
func (s *Service) Submit(ctx context.Context, conv *Conversation, text string) (Turn, error) {
	if !s.opts.AllowBlank && strings.TrimSpace(text) == "" {
		return Turn{}, ErrEmptyInput
	}

	msgs, profile, err := conv.begin(text)
	if err != nil {
		return Turn{}, err
	}
	log.Printf("Incoming message [session=%s, surface=%s]: %q", conv.ID(), s.opts.Surface, text)

	req, err := s.composer.Compose(ctx, conv.ID(), msgs, profile, text)
	if err != nil {
		conv.fail(err)
		return Turn{}, fmt.Errorf("compose request: %w", err)
	}

	resp, err := s.client.Generate(ctx, req.Messages())
	if err != nil {
		log.Printf("failed to generate reply [session=%s]: %v", conv.ID(), err)
		conv.fail(err)
		s.record(conv.ID(), text, llm.Response{}, err)
		return Turn{}, fmt.Errorf("generate reply: %w", err)
	}

	if err := s.store.Append(ctx, conv.ID(),
		history.Message{Role: history.RoleHuman, Text: text},
		history.Message{Role: history.RoleAI, Text: resp.Content},
	); err != nil {
		conv.fail(err)
		return Turn{}, fmt.Errorf("commit turn: %w", err)
	}

	u := Usage{PromptTokens: resp.PromptTokens, CompletionTokens: resp.CompletionTokens, TotalTokens: resp.TotalTokens}
	conv.succeed(resp.Content, u)
	s.record(conv.ID(), text, resp, nil)

	log.Printf("LLM response [model=%s, tokens: prompt=%d, completion=%d, total=%d]: %q",
		resp.Model, resp.PromptTokens, resp.CompletionTokens, resp.TotalTokens, resp.Content)

	return Turn{Reply: resp.Content, Model: resp.Model, Usage: u}, nil
}

func (s *Service) record(sessionID, text string, resp llm.Response, genErr error) {
	ev := storage.Event{
		Timestamp:         time.Now().UTC(),
		SessionID:         sessionID,
		Surface:           s.opts.Surface,
		UserMessage:       text,
		AssistantResponse: resp.Content,
		Model:             resp.Model,
		PromptTokens:      resp.PromptTokens,
		CompletionTokens:  resp.CompletionTokens,
		TotalTokens:       resp.TotalTokens,
	}
	if genErr != nil {
		ev.Error = genErr.Error()
	}
	if err := s.recorder.AppendInteraction(ev); err != nil {
		log.Printf("failed to record turn: %v", err)
	}
}
