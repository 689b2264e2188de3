package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"
)

// StaticRenderer performs one fresh page load and writes it out.
type StaticRenderer interface {
	RenderStatic(ctx context.Context) error
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron     *cron.Cron
	Renderer StaticRenderer
	Ctx      context.Context

	mu      sync.Mutex
	running bool
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, r StaticRenderer) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Renderer: r,
		Ctx:      ctx,
	}
}

// RegisterRender schedules the static render.
func (s *Scheduler) RegisterRender(renderCron string) error {
	if _, err := s.Cron.AddFunc(renderCron, s.renderTask); err != nil {
		return fmt.Errorf("register render task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running render to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunRenderNow executes the render task immediately (for RUN_ON_START).
func (s *Scheduler) RunRenderNow() {
	s.renderTask()
}

func (s *Scheduler) renderTask() {
	// a slow upstream must not stack renders on top of each other
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		log.Println("[WARN] previous render still running, skipping")
		return
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	log.Println("[INFO] running render task")
	if err := s.Renderer.RenderStatic(s.Ctx); err != nil {
		log.Printf("[ERROR] render: %v", err)
	}
}
