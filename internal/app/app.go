package app

import (
	"fmt"
	"io"
	"log"

	"mindease/internal/chat"
	"mindease/internal/config"
	"mindease/internal/history"
	"mindease/internal/llm"
	"mindease/internal/prompt"
	"mindease/internal/scheduler"
	"mindease/internal/storage"
)

// App holds the wiring shared by every entry point: one history store, one
// model client and one turn service over them.
type App struct {
	Config   *config.Config
	Service  *chat.Service
	Sessions *chat.Sessions
	Store    *history.Store
	Recorder storage.Recorder
	Model    string

	sched *scheduler.Scheduler
}

func New(cfg *config.Config) (*App, error) {
	persona, err := prompt.Lookup(cfg.PersonasPath, cfg.Persona)
	if err != nil {
		return nil, fmt.Errorf("resolve persona: %w", err)
	}
	client, model, err := llm.FromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("create llm client: %w", err)
	}
	return NewWith(cfg, persona, client, model)
}

// NewWith wires an App around an already built client.
func NewWith(cfg *config.Config, persona prompt.Persona, client llm.Client, model string) (*App, error) {
	rec, err := storage.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open recorder: %w", err)
	}
	store := history.NewStore()
	svc := chat.NewService(prompt.NewComposer(persona, store), store, client, rec,
		chat.Options{AllowBlank: cfg.AllowBlankInput})

	log.Printf("✅ MindEase ready [persona=%s, provider=%s, model=%s, recorder=%s]",
		persona.Name, cfg.LLMProvider, model, cfg.Recorder)

	return &App{
		Config:   cfg,
		Service:  svc,
		Sessions: chat.NewSessions(),
		Store:    store,
		Recorder: rec,
		Model:    model,
	}, nil
}

// StartReports schedules the daily usage report. Failures are logged and
// do not stop the caller.
func (a *App) StartReports() {
	if a.Config.ReportSchedule == "" {
		return
	}
	s := scheduler.New(a.Config.ReportSchedule, scheduler.DailyReport(a.Recorder, nil))
	if err := s.Start(); err != nil {
		log.Printf("⚠️ failed to start report scheduler: %v", err)
		return
	}
	a.sched = s
}

func (a *App) Close() {
	if a.sched != nil {
		a.sched.Stop()
	}
	a.Store.Close()
	if c, ok := a.Recorder.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Printf("failed to close recorder: %v", err)
		}
	}
}
