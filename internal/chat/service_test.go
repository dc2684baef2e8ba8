package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"mindease/internal/history"
	"mindease/internal/llm"
	"mindease/internal/prompt"
	"mindease/internal/storage"
	"mindease/internal/transcript"
)

type fakeLLM struct {
	mu    sync.Mutex
	resp  llm.Response
	err   error
	calls [][]llm.Message
}

func (f *fakeLLM) Generate(ctx context.Context, msgs []llm.Message) (llm.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, msgs)
	return f.resp, f.err
}

func (f *fakeLLM) lastSystem() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 || len(f.calls[len(f.calls)-1]) == 0 {
		return ""
	}
	return f.calls[len(f.calls)-1][0].Content
}

// blockingLLM holds every call until release is closed.
type blockingLLM struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingLLM) Generate(ctx context.Context, msgs []llm.Message) (llm.Response, error) {
	close(b.started)
	<-b.release
	return llm.Response{Content: "done"}, nil
}

type memRecorder struct {
	mu     sync.Mutex
	events []storage.Event
}

func (m *memRecorder) AppendInteraction(ev storage.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *memRecorder) LoadInteractions() ([]storage.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]storage.Event(nil), m.events...), nil
}

const greeting = "Hi, I'm MindEase."

func newService(client llm.Client, persona prompt.Persona, rec storage.Recorder) (*Service, *history.Store) {
	if persona.Template == "" {
		persona = prompt.Persona{Template: "You are MindEase.", Greeting: greeting}
	}
	store := history.NewStore()
	return NewService(prompt.NewComposer(persona, store), store, client, rec, Options{Surface: "test"}), store
}

func TestSubmit_Scenario(t *testing.T) {
	ctx := context.Background()
	client := &fakeLLM{resp: llm.Response{Content: "I hear you.", Model: "m", TotalTokens: 7}}
	svc, store := newService(client, prompt.Persona{}, nil)
	conv := NewConversation("s1")

	hist, err := svc.Greet(ctx, conv)
	if err != nil {
		t.Fatalf("greet: %v", err)
	}
	if len(hist) != 1 || hist[0].Role != history.RoleAI || hist[0].Text != greeting {
		t.Fatalf("unexpected seeded history: %+v", hist)
	}

	turn, err := svc.Submit(ctx, conv, "I feel anxious")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if turn.Reply != "I hear you." || turn.Usage.TotalTokens != 7 {
		t.Fatalf("unexpected turn: %+v", turn)
	}

	want := []transcript.Message{transcript.HumanMessage("I feel anxious"), transcript.AIMessage("I hear you.")}
	got := conv.Transcript()
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("transcript: %+v", got)
	}

	msgs, _ := store.Messages(ctx, "s1")
	wantHist := []history.Message{
		{Role: history.RoleAI, Text: greeting},
		{Role: history.RoleHuman, Text: "I feel anxious"},
		{Role: history.RoleAI, Text: "I hear you."},
	}
	if len(msgs) != len(wantHist) {
		t.Fatalf("history: %+v", msgs)
	}
	for i := range wantHist {
		if msgs[i] != wantHist[i] {
			t.Fatalf("history[%d] = %+v want %+v", i, msgs[i], wantHist[i])
		}
	}

	// The request carried persona, greeting, then the new user text.
	call := client.calls[0]
	if call[0].Role != llm.RoleSystem || call[1].Role != llm.RoleAssistant || call[len(call)-1].Content != "I feel anxious" {
		t.Fatalf("unexpected request: %+v", call)
	}
	if conv.State() != Idle || conv.Usage().TotalTokens != 7 {
		t.Fatalf("state after turn: %v usage %+v", conv.State(), conv.Usage())
	}
}

func TestSubmit_TranscriptGrowsTwoPerTurn(t *testing.T) {
	ctx := context.Background()
	client := &fakeLLM{resp: llm.Response{Content: "ok"}}
	svc, _ := newService(client, prompt.Persona{}, nil)
	conv := NewConversation("s")

	for n := 1; n <= 5; n++ {
		text := fmt.Sprintf("msg %d", n)
		if _, err := svc.Submit(ctx, conv, text); err != nil {
			t.Fatalf("turn %d: %v", n, err)
		}
		tr := conv.Transcript()
		if len(tr) != 2*n {
			t.Fatalf("after %d turns transcript has %d entries", n, len(tr))
		}
		if tr[2*n-2] != transcript.HumanMessage(text) || tr[2*n-1].Origin != transcript.AI {
			t.Fatalf("turn %d out of order: %+v", n, tr)
		}
	}
}

func TestSubmit_ModelFailureKeepsInputAndHistory(t *testing.T) {
	ctx := context.Background()
	rec := &memRecorder{}
	client := &fakeLLM{err: errors.New("quota exceeded")}
	svc, store := newService(client, prompt.Persona{}, rec)
	conv := NewConversation("s1")
	if _, err := svc.Greet(ctx, conv); err != nil {
		t.Fatalf("greet: %v", err)
	}

	_, err := svc.Submit(ctx, conv, "hello?")
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}

	tr := conv.Transcript()
	if len(tr) != 1 || tr[0] != transcript.HumanMessage("hello?") {
		t.Fatalf("human message should stay visible: %+v", tr)
	}
	msgs, _ := store.Messages(ctx, "s1")
	if len(msgs) != 1 {
		t.Fatalf("history changed on failure: %+v", msgs)
	}
	if conv.State() != Idle || conv.LastError() == "" {
		t.Fatalf("state %v lastErr %q", conv.State(), conv.LastError())
	}
	if len(rec.events) != 1 || rec.events[0].Error == "" || rec.events[0].Surface != "test" {
		t.Fatalf("failed turn not recorded: %+v", rec.events)
	}

	// A resubmission goes through once the provider recovers.
	client.err = nil
	client.resp = llm.Response{Content: "I'm here."}
	if _, err := svc.Submit(ctx, conv, "hello?"); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if len(conv.Transcript()) != 3 || conv.LastError() != "" {
		t.Fatalf("unexpected transcript after retry: %+v", conv.Transcript())
	}
	msgs, _ = store.Messages(ctx, "s1")
	if len(msgs) != 3 {
		t.Fatalf("history after retry: %+v", msgs)
	}
}

func TestSubmit_BlankInputPolicy(t *testing.T) {
	ctx := context.Background()
	client := &fakeLLM{resp: llm.Response{Content: "ok"}}
	svc, _ := newService(client, prompt.Persona{}, nil)
	conv := NewConversation("s")

	for _, in := range []string{"", "   ", "\n\t"} {
		if _, err := svc.Submit(ctx, conv, in); !errors.Is(err, ErrEmptyInput) {
			t.Fatalf("input %q: want ErrEmptyInput, got %v", in, err)
		}
	}
	if len(conv.Transcript()) != 0 || len(client.calls) != 0 {
		t.Fatalf("rejected input must not produce a turn")
	}

	store := history.NewStore()
	lenient := NewService(prompt.NewComposer(prompt.Persona{Template: "p"}, store), store, client, nil, Options{AllowBlank: true})
	if _, err := lenient.Submit(ctx, conv, "  "); err != nil {
		t.Fatalf("blank input should be forwarded: %v", err)
	}
	if len(client.calls) != 1 {
		t.Fatalf("expected one model call")
	}
}

func TestSubmit_RejectsWhileAwaitingReply(t *testing.T) {
	ctx := context.Background()
	client := &blockingLLM{started: make(chan struct{}), release: make(chan struct{})}
	svc, _ := newService(client, prompt.Persona{}, nil)
	conv := NewConversation("s")

	done := make(chan error, 1)
	go func() {
		_, err := svc.Submit(ctx, conv, "first")
		done <- err
	}()
	<-client.started

	if conv.State() != AwaitingReply {
		t.Fatalf("want awaiting_reply, got %v", conv.State())
	}
	if _, err := svc.Submit(ctx, conv, "second"); !errors.Is(err, ErrBusy) {
		t.Fatalf("want ErrBusy, got %v", err)
	}

	close(client.release)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
	tr := conv.Transcript()
	if len(tr) != 2 || tr[0].Text != "first" {
		t.Fatalf("second submission leaked into transcript: %+v", tr)
	}
}

func TestSubmit_SummaryUsesLastThreeHumanMessages(t *testing.T) {
	ctx := context.Background()
	client := &fakeLLM{resp: llm.Response{Content: "reply"}}
	persona := prompt.Persona{Template: "persona", Summarize: true}
	svc, _ := newService(client, persona, nil)
	conv := NewConversation("s")

	for _, in := range []string{"A", "B", "C"} {
		if _, err := svc.Submit(ctx, conv, in); err != nil {
			t.Fatalf("submit %s: %v", in, err)
		}
	}
	if !strings.HasSuffix(client.lastSystem(), "\nA\nB\nC") {
		t.Fatalf("summary after third: %q", client.lastSystem())
	}

	if _, err := svc.Submit(ctx, conv, "D"); err != nil {
		t.Fatalf("submit D: %v", err)
	}
	sys := client.lastSystem()
	if !strings.HasSuffix(sys, "\nB\nC\nD") || strings.Contains(sys, "\nA\n") {
		t.Fatalf("summary after fourth: %q", sys)
	}
}

func TestSubmit_StoreUnavailable(t *testing.T) {
	client := &fakeLLM{resp: llm.Response{Content: "ok"}}
	svc, store := newService(client, prompt.Persona{}, nil)
	store.Close()
	conv := NewConversation("s")

	if _, err := svc.Submit(context.Background(), conv, "hi"); !errors.Is(err, history.ErrUnavailable) {
		t.Fatalf("want ErrUnavailable, got %v", err)
	}
	if conv.State() != Idle {
		t.Fatalf("conversation stuck in %v", conv.State())
	}
}

func TestGreet_GatedPersonaWaitsForProfile(t *testing.T) {
	ctx := context.Background()
	persona := prompt.Builtin()["companion"]
	svc, store := newService(&fakeLLM{}, persona, nil)
	conv := NewConversation("s")

	hist, err := svc.Greet(ctx, conv)
	if err != nil {
		t.Fatalf("greet: %v", err)
	}
	if len(hist) != 0 || store.Has("s") {
		t.Fatalf("session should not exist before onboarding")
	}

	conv.SetProfile(prompt.Profile{Name: "Ana", Mood: "tense"})
	hist, err = svc.Greet(ctx, conv)
	if err != nil {
		t.Fatalf("greet: %v", err)
	}
	if len(hist) != 1 || !strings.Contains(hist[0].Text, "Ana") {
		t.Fatalf("personalised greeting missing: %+v", hist)
	}
	if _, err := svc.Greet(ctx, conv); err != nil {
		t.Fatalf("greet again: %v", err)
	}
	if msgs, _ := store.Messages(ctx, "s"); len(msgs) != 1 {
		t.Fatalf("greeting seeded twice: %+v", msgs)
	}
}

func TestSessions_IndependentConversations(t *testing.T) {
	ctx := context.Background()
	client := &fakeLLM{resp: llm.Response{Content: "ok"}}
	svc, store := newService(client, prompt.Persona{}, nil)
	reg := NewSessions()

	if reg.Get("a") != reg.Get("a") {
		t.Fatalf("registry must return the same conversation")
	}
	if _, err := svc.Submit(ctx, reg.Get("a"), "hello"); err != nil {
		t.Fatalf("submit a: %v", err)
	}
	if len(reg.Get("b").Transcript()) != 0 {
		t.Fatalf("conversation b affected")
	}
	if msgs, _ := store.Messages(ctx, "b"); len(msgs) != 0 {
		t.Fatalf("history b affected")
	}
	if reg.Len() != 2 {
		t.Fatalf("want 2 conversations, got %d", reg.Len())
	}
}
