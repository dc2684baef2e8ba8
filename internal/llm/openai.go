package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// OpenAIConfig covers OpenAI and any compatible endpoint such as OpenRouter.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32

	// Sent as HTTP-Referer and X-Title when set. OpenRouter uses them for
	// attribution.
	Referrer string
	Title    string
}

type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
}

// extraHeaders adds fixed headers to every outgoing request.
type extraHeaders struct {
	next    http.RoundTripper
	headers http.Header
}

func (t extraHeaders) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	for k, vs := range t.headers {
		for _, v := range vs {
			out.Header.Add(k, v)
		}
	}
	return t.next.RoundTrip(out)
}

func NewOpenAI(cfg OpenAIConfig) *OpenAIClient {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if h := attributionHeaders(cfg.Referrer, cfg.Title); len(h) > 0 {
		oc.HTTPClient = &http.Client{Transport: extraHeaders{next: http.DefaultTransport, headers: h}}
	}
	return &OpenAIClient{
		client:      openai.NewClientWithConfig(oc),
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}
}

func attributionHeaders(referrer, title string) http.Header {
	h := http.Header{}
	if referrer != "" {
		h.Set("HTTP-Referer", referrer)
	}
	if title != "" {
		h.Set("X-Title", title)
	}
	return h
}

func (c *OpenAIClient) Generate(ctx context.Context, messages []Message) (Response, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages:    make([]openai.ChatCompletionMessage, len(messages)),
	}
	for i, m := range messages {
		req.Messages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Response{}, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, fmt.Errorf("openai returned no choices")
	}

	model := resp.Model
	if model == "" {
		model = c.model
	}
	return Response{
		Content:          resp.Choices[0].Message.Content,
		Model:            model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}, nil
}
