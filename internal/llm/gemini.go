package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"google.golang.org/api/option"
)

const DefaultGeminiModel = "gemini-1.5-flash"

// contentGenerator is the part of llms.Model the Gemini client calls.
type contentGenerator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// GeminiClient talks to Google AI through langchaingo. The system text is sent
// as the system instruction and turns go out as user/model contents.
type GeminiClient struct {
	gen         contentGenerator
	model       string
	temperature float64
}

func NewGemini(ctx context.Context, apiKey, model string, temperature float64, opts ...option.ClientOption) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	gen, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
		googleai.WithDefaultTemperature(temperature),
		func(o *googleai.Options) { o.ClientOptions = append(o.ClientOptions, opts...) },
	)
	if err != nil {
		return nil, fmt.Errorf("failed to init gemini client: %w", err)
	}
	return &GeminiClient{gen: gen, model: model, temperature: temperature}, nil
}

func (c *GeminiClient) Generate(ctx context.Context, messages []Message) (Response, error) {
	resp, err := c.gen.GenerateContent(ctx, geminiMessages(messages),
		llms.WithModel(c.model),
		llms.WithTemperature(c.temperature),
	)
	if err != nil {
		return Response{}, fmt.Errorf("gemini generate content failed: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return Response{}, fmt.Errorf("gemini returned no candidates")
	}

	choice := resp.Choices[0]
	out := Response{Content: choice.Content, Model: c.model}
	out.PromptTokens = tokenCount(choice.GenerationInfo["input_tokens"])
	out.CompletionTokens = tokenCount(choice.GenerationInfo["output_tokens"])
	out.TotalTokens = tokenCount(choice.GenerationInfo["total_tokens"])
	return out, nil
}

// geminiMessages folds system text into one leading system message and maps
// assistant turns to the model role.
func geminiMessages(messages []Message) []llms.MessageContent {
	system, turns := splitSystem(messages)
	out := make([]llms.MessageContent, 0, len(turns)+1)
	if system != "" {
		out = append(out, llms.TextParts(llms.ChatMessageTypeSystem, system))
	}
	for _, m := range turns {
		role := llms.ChatMessageTypeHuman
		if m.Role == RoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		out = append(out, llms.TextParts(role, m.Content))
	}
	return out
}

func tokenCount(v any) int {
	switch n := v.(type) {
	case int32:
		return int(n)
	case int64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}
