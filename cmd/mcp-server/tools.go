package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"mindease/internal/chat"
)

// ChatParams runs one turn in a session.
type ChatParams struct {
	SessionID string `json:"session_id" mcp:"conversation id; reuse it to continue a conversation"`
	Message   string `json:"message" mcp:"what the user wants to say"`
}

// HistoryParams selects a session.
type HistoryParams struct {
	SessionID string `json:"session_id" mcp:"conversation id"`
}

type MindEaseMCPServer struct {
	svc      *chat.Service
	sessions *chat.Sessions
}

func NewMindEaseMCPServer(svc *chat.Service, sessions *chat.Sessions) *MindEaseMCPServer {
	return &MindEaseMCPServer{svc: svc.WithSurface("mcp"), sessions: sessions}
}

func (s *MindEaseMCPServer) Chat(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[ChatParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	if strings.TrimSpace(args.SessionID) == "" {
		return errorResult("❌ session_id is required"), nil
	}

	log.Printf("💬 MCP Server: turn in session %s", args.SessionID)

	conv := s.sessions.Get(args.SessionID)
	turn, err := s.svc.Submit(ctx, conv, args.Message)
	switch {
	case errors.Is(err, chat.ErrEmptyInput):
		return errorResult("❌ message is empty"), nil
	case errors.Is(err, chat.ErrBusy):
		return errorResult("❌ a reply is still pending for this session"), nil
	case err != nil:
		return errorResult(fmt.Sprintf("❌ Failed to get a reply: %v", err)), nil
	}

	meta := map[string]interface{}{
		"session_id":       args.SessionID,
		"model":            turn.Model,
		"total_tokens":     conv.Usage().TotalTokens,
		"transcript_items": len(conv.Transcript()),
	}
	if hist, err := s.svc.Store().Messages(ctx, args.SessionID); err == nil {
		meta["history_items"] = len(hist)
	}

	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{
			&mcp.TextContent{Text: turn.Reply},
		},
		Meta: meta,
	}, nil
}

func (s *MindEaseMCPServer) History(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[HistoryParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	if strings.TrimSpace(args.SessionID) == "" {
		return errorResult("❌ session_id is required"), nil
	}

	msgs, err := s.svc.Store().Messages(ctx, args.SessionID)
	if err != nil {
		return errorResult(fmt.Sprintf("❌ Failed to load history: %v", err)), nil
	}

	var b strings.Builder
	for _, m := range msgs {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Text)
	}
	if b.Len() == 0 {
		b.WriteString("(empty)")
	}

	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{
			&mcp.TextContent{Text: b.String()},
		},
		Meta: map[string]interface{}{
			"session_id": args.SessionID,
			"count":      len(msgs),
		},
	}, nil
}

func errorResult(text string) *mcp.CallToolResultFor[any] {
	return &mcp.CallToolResultFor[any]{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
