package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSpec fires at 21:00 UTC every day.
const DefaultSpec = "0 21 * * *"

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Scheduler runs a single job on a cron spec, in UTC.
type Scheduler struct {
	cron   *cron.Cron
	spec   string
	job    Job
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	lastRun time.Time
	lastErr error
}

func New(spec string, job Job) *Scheduler {
	if spec == "" {
		spec = DefaultSpec
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		spec:   spec,
		job:    job,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Scheduler) Start() error {
	if s.job == nil {
		log.Println("⚠️ No job set, scheduler will stay idle")
		return nil
	}
	if _, err := s.cron.AddFunc(s.spec, func() {
		log.Printf("🕘 Triggered usage report (%s UTC)", s.spec)
		if err := s.RunNow(); err != nil {
			log.Printf("❌ Usage report failed: %v", err)
		}
	}); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("📅 Scheduler started - usage reports on %q UTC", s.spec)
	return nil
}

// RunNow runs the job immediately and remembers the outcome.
func (s *Scheduler) RunNow() error {
	err := s.job(s.ctx)
	s.mu.Lock()
	s.lastRun, s.lastErr = time.Now(), err
	s.mu.Unlock()
	return err
}

// LastRun reports when the job last ran and how it ended.
func (s *Scheduler) LastRun() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastErr
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.cancel()
	log.Println("📅 Scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	return len(s.cron.Entries()) > 0
}
