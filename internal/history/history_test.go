package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/tmc/langchaingo/llms"
)

func TestGetOrCreate_SeedsGreetingOnce(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	if _, err := s.GetOrCreate(ctx, "s1", "Hello, I'm MindEase."); err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := s.GetOrCreate(ctx, "s1", "Hello, I'm MindEase."); err != nil {
		t.Fatalf("second: %v", err)
	}

	msgs, err := s.Messages(ctx, "s1")
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("greeting seeded %d times", len(msgs))
	}
	if msgs[0].Role != RoleAI || msgs[0].Text != "Hello, I'm MindEase." {
		t.Fatalf("unexpected greeting: %+v", msgs[0])
	}
}

func TestGetOrCreate_EmptyGreetingLeavesLogEmpty(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	sess, err := s.GetOrCreate(ctx, "quiet", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if n, err := sess.Len(ctx); err != nil || n != 0 {
		t.Fatalf("expected empty log, got %d %v", n, err)
	}
	// A later greeting must not seed an existing session.
	if _, err := s.GetOrCreate(ctx, "quiet", "hi"); err != nil {
		t.Fatalf("again: %v", err)
	}
	if n, _ := sess.Len(ctx); n != 0 {
		t.Fatalf("existing session was seeded")
	}
}

func TestAppendAndIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	if err := s.Append(ctx, "a", Message{Role: RoleHuman, Text: "hello"}, Message{Role: RoleAI, Text: "hi"}); err != nil {
		t.Fatalf("append a: %v", err)
	}
	if err := s.Append(ctx, "b", Message{Role: RoleHuman, Text: "foo"}); err != nil {
		t.Fatalf("append b: %v", err)
	}

	a, _ := s.Messages(ctx, "a")
	b, _ := s.Messages(ctx, "b")
	if len(a) != 2 || len(b) != 1 {
		t.Fatalf("unexpected lengths: a=%d b=%d", len(a), len(b))
	}
	if a[0].Role != RoleHuman || a[1].Role != RoleAI || a[1].Text != "hi" {
		t.Fatalf("unexpected a: %+v", a)
	}

	// Ensure copy semantics (modifying returned slice does not affect internal state)
	a[0] = Message{Role: RoleHuman, Text: "mutated"}
	a2, _ := s.Messages(ctx, "a")
	if a2[0].Text != "hello" {
		t.Fatalf("internal state mutated via returned slice")
	}
}

func TestMessages_UnknownSessionNotCreated(t *testing.T) {
	s := NewStore()
	msgs, err := s.Messages(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(msgs) != 0 || s.Has("ghost") {
		t.Fatalf("unknown session should stay absent")
	}
}

func TestSystemRoleRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	if err := s.Append(ctx, "x", Message{Role: RoleSystem, Text: "note"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	msgs, _ := s.Messages(ctx, "x")
	if msgs[0].Role != RoleSystem {
		t.Fatalf("role lost: %+v", msgs[0])
	}
}

func TestClose_MakesStoreUnavailable(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	s.Close()

	if _, err := s.GetOrCreate(ctx, "s1", "hi"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("GetOrCreate: want ErrUnavailable, got %v", err)
	}
	if err := s.Append(ctx, "s1", Message{Role: RoleHuman, Text: "x"}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Append: want ErrUnavailable, got %v", err)
	}
	if _, err := s.Messages(ctx, "s1"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Messages: want ErrUnavailable, got %v", err)
	}
}

func TestConcurrentSessions(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("s%d", i)
			if _, err := s.GetOrCreate(ctx, id, "greet"); err != nil {
				t.Errorf("create %s: %v", id, err)
				return
			}
			for j := 0; j < 10; j++ {
				_ = s.Append(ctx, id, Message{Role: RoleHuman, Text: "m"})
			}
		}(i)
	}
	wg.Wait()

	if s.Len() != 8 {
		t.Fatalf("want 8 sessions, got %d", s.Len())
	}
	for i := 0; i < 8; i++ {
		msgs, _ := s.Messages(ctx, fmt.Sprintf("s%d", i))
		if len(msgs) != 11 {
			t.Fatalf("session s%d: want 11 messages, got %d", i, len(msgs))
		}
	}
}

type brokenLog struct{ err error }

func (b brokenLog) AddMessage(context.Context, llms.ChatMessage) error { return b.err }
func (b brokenLog) Messages(context.Context) ([]llms.ChatMessage, error) {
	return nil, b.err
}

func TestSessionLen_ReportsReadErrors(t *testing.T) {
	boom := errors.New("backend gone")
	sess := &Session{id: "broken", log: brokenLog{err: boom}}
	n, err := sess.Len(context.Background())
	if !errors.Is(err, boom) || n != 0 {
		t.Fatalf("want wrapped read error, got %d %v", n, err)
	}
}
