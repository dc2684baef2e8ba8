package config

import (
	"fmt"
	"log"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderGemini LLMProvider = "gemini"
	ProviderYandex LLMProvider = "yandex"
	ProviderMock   LLMProvider = "mock"
)

type RecorderKind string

const (
	RecorderJSONL  RecorderKind = "jsonl"
	RecorderSQLite RecorderKind = "sqlite"
	RecorderNone   RecorderKind = "none"
)

type Config struct {
	// LLM settings
	LLMProvider      LLMProvider `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey     string      `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string      `env:"OPENAI_BASE_URL"`
	OpenAIModel      string      `env:"OPENAI_MODEL" envDefault:"gpt-3.5-turbo"`
	GeminiAPIKey     string      `env:"GEMINI_API_KEY"`
	GeminiModel      string      `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash"`
	YandexOAuthToken string      `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string      `env:"YANDEX_FOLDER_ID"`
	Temperature      float64     `env:"LLM_TEMPERATURE" envDefault:"0.6"`

	// OpenRouter (optional)
	OpenRouterReferrer string `env:"OPENROUTER_REFERRER"`
	OpenRouterTitle    string `env:"OPENROUTER_TITLE"`

	// Persona
	Persona      string `env:"PERSONA" envDefault:"therapist"`
	PersonasPath string `env:"PERSONAS_PATH"`

	// Conversation policy
	SessionID       string `env:"SESSION_ID" envDefault:"default"`
	AllowBlankInput bool   `env:"ALLOW_BLANK_INPUT" envDefault:"false"`

	// Surfaces
	HTTPAddr         string `env:"HTTP_ADDR" envDefault:":8080"`
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`

	// Turn audit log
	Recorder       RecorderKind `env:"RECORDER" envDefault:"jsonl"`
	RecordPath     string       `env:"RECORD_PATH" envDefault:"logs/turns.jsonl"`
	ReportSchedule string       `env:"REPORT_SCHEDULE" envDefault:"0 21 * * *"`
}

// Parse reads the configuration from the environment.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	switch cfg.LLMProvider {
	case ProviderOpenAI, ProviderGemini, ProviderYandex, ProviderMock:
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", cfg.LLMProvider)
	}
	switch cfg.Recorder {
	case RecorderJSONL, RecorderSQLite, RecorderNone:
	default:
		return nil, fmt.Errorf("unsupported RECORDER %q", cfg.Recorder)
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		return nil, fmt.Errorf("LLM_TEMPERATURE out of range: %v", cfg.Temperature)
	}
	return cfg, nil
}

func New() *Config {
	cfg, err := Parse()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}

// ModelFor returns the configured model name for provider p.
func (c *Config) ModelFor(p LLMProvider) string {
	switch p {
	case ProviderGemini:
		return c.GeminiModel
	case ProviderYandex:
		return "yandexgpt-lite"
	case ProviderMock:
		return ""
	default:
		return c.OpenAIModel
	}
}
