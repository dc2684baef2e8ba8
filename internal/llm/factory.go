package llm

import (
	"context"
	"fmt"
	"log"
	"strings"

	"google.golang.org/api/option"

	"mindease/internal/config"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderYandex = "yandex"
	ProviderMock   = "mock"
)

// Factory builds model clients from the credentials in one config.
type Factory struct {
	cfg *config.Config
}

func NewFactory(cfg *config.Config) *Factory {
	return &Factory{cfg: cfg}
}

func (f *Factory) CreateClient(provider, model string) (Client, error) {
	switch strings.ToLower(provider) {
	case ProviderOpenAI:
		return NewOpenAI(OpenAIConfig{
			APIKey:      f.cfg.OpenAIAPIKey,
			BaseURL:     f.cfg.OpenAIBaseURL,
			Model:       model,
			Temperature: float32(f.cfg.Temperature),
			Referrer:    f.cfg.OpenRouterReferrer,
			Title:       f.cfg.OpenRouterTitle,
		}), nil
	case ProviderGemini:
		return NewGemini(context.Background(), f.cfg.GeminiAPIKey, model, f.cfg.Temperature, option.WithUserAgent("mindease"))
	case ProviderYandex:
		return NewYandex(f.cfg.YandexOAuthToken, f.cfg.YandexFolderID)
	case ProviderMock:
		return MockClient{}, nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", provider)
	}
}

// FromConfig builds the client for the configured provider and reports the
// model name it will answer with.
func FromConfig(cfg *config.Config) (Client, string, error) {
	prov := string(cfg.LLMProvider)
	model := cfg.ModelFor(cfg.LLMProvider)
	if prov == ProviderMock {
		model = MockModel
	}
	c, err := NewFactory(cfg).CreateClient(prov, model)
	if err != nil {
		return nil, "", err
	}
	log.Printf("🧠 LLM client ready [provider=%s, model=%s]", prov, model)
	return c, model, nil
}
