package llm

import (
	"context"
	"fmt"
	"strings"
)

const MockModel = "mock-mindease"

// MockClient answers without any external API, for local development.
type MockClient struct{}

func (MockClient) Generate(_ context.Context, messages []Message) (Response, error) {
	var last string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			last = messages[i].Content
			break
		}
	}
	reply := fmt.Sprintf("(mock) I hear you: %q. Let's take a slow breath together.", strings.TrimSpace(last))
	return Response{Content: reply, Model: MockModel}, nil
}
