package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"SP500Returns/internal/notifier"
	"SP500Returns/internal/pipeline"

	"github.com/robfig/cron/v3"
)

// Sender delivers a run summary somewhere outside the process.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// ReportPrinter shows stage outcomes locally.
type ReportPrinter interface {
	PrintReports(reports []pipeline.Report)
}

// Scheduler re-runs the whole pipeline on a cron schedule.
type Scheduler struct {
	Cron     *cron.Cron
	Pipeline *pipeline.Pipeline
	Sender   Sender // nil disables remote summaries
	Printer  ReportPrinter
	Reload   bool
	Ctx      context.Context

	running sync.Mutex
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, p *pipeline.Pipeline, sender Sender, printer ReportPrinter, reload bool) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Pipeline: p,
		Sender:   sender,
		Printer:  printer,
		Reload:   reload,
		Ctx:      ctx,
	}
}

// Register adds the pipeline run under the given cron expression.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.runTask); err != nil {
		return fmt.Errorf("register pipeline task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes the pipeline immediately. It returns false if a run was
// already in progress.
func (s *Scheduler) RunNow() bool {
	return s.run()
}

func (s *Scheduler) runTask() {
	s.run()
}

func (s *Scheduler) run() bool {
	if !s.running.TryLock() {
		log.Println("[WARN] previous pipeline run still in progress, skipping")
		return false
	}
	defer s.running.Unlock()

	log.Println("[INFO] running pipeline")
	reports, err := s.Pipeline.RunAll(s.Ctx, s.Reload)
	if err != nil {
		log.Printf("[ERROR] pipeline run: %v", err)
	}
	if s.Printer != nil {
		s.Printer.PrintReports(reports)
	}
	s.trySend(notifier.FormatRunSummary(reports, err))
	return true
}

func (s *Scheduler) trySend(text string) {
	if s.Sender == nil {
		return
	}
	if err := s.Sender.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
