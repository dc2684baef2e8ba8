package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Morwran/yagpt"
)

// IAM tokens are issued for 12 hours; refresh a little earlier.
const yandexTokenTTL = 11 * time.Hour

// YandexClient talks to YandexGPT Lite. It keeps the OAuth-derived IAM token
// and swaps it for a fresh one once it gets old.
type YandexClient struct {
	ya    yagpt.YaGPTFace
	issue func() (string, error)

	mu       sync.Mutex
	token    string
	issuedAt time.Time
	now      func() time.Time
}

func NewYandex(oauthToken, folderID string) (*YandexClient, error) {
	if oauthToken == "" || folderID == "" {
		return nil, fmt.Errorf("YANDEX_OAUTH_TOKEN and YANDEX_FOLDER_ID are required")
	}
	iam, err := yagpt.NewYaIam(oauthToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init yandex iam: %w", err)
	}
	ya, err := yagpt.NewYagpt(folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to init yagpt: %w", err)
	}
	issue := func() (string, error) {
		resp, err := iam.Create()
		if err != nil {
			return "", err
		}
		return resp.IamToken, nil
	}
	c := &YandexClient{ya: ya, issue: issue, now: time.Now}
	if _, err := c.iamToken(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *YandexClient) iamToken() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && c.now().Sub(c.issuedAt) < yandexTokenTTL {
		return c.token, nil
	}
	token, err := c.issue()
	if err != nil {
		return "", fmt.Errorf("failed to create iam token: %w", err)
	}
	c.token, c.issuedAt = token, c.now()
	return c.token, nil
}

func (c *YandexClient) Generate(ctx context.Context, messages []Message) (Response, error) {
	token, err := c.iamToken()
	if err != nil {
		return Response{}, err
	}

	history := make([]yagpt.Message, len(messages))
	for i, m := range messages {
		history[i] = yagpt.Message{Role: m.Role, Content: m.Content}
	}

	resp, err := c.ya.CompletionWithCtx(ctx, token, history)
	if err != nil {
		return Response{}, fmt.Errorf("yagpt completion failed: %w", err)
	}
	if resp == nil || len(resp.Alternatives) == 0 {
		return Response{}, fmt.Errorf("yagpt returned empty response")
	}
	return Response{
		Content:          resp.Alternatives[0].Message.Content,
		Model:            yagpt.YaModelLite,
		PromptTokens:     int(resp.Usage.InputTextTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}, nil
}
