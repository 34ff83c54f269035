package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job maps a named periodic pass to its cron spec and handler.
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

// Scheduler drives the periodic passes. Jobs are registered once at process
// start; a failing run is logged and retried on the next schedule.
type Scheduler struct {
	cron *cron.Cron
	log  *logrus.Logger
}

// New initializes a scheduler
func New(log *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		log:  log,
	}
}

// Register adds jobs to the schedule. It must be called before Start.
func (s *Scheduler) Register(jobs ...Job) error {
	for _, job := range jobs {
		job := job
		_, err := s.cron.AddFunc(job.Spec, func() {
			start := time.Now()
			s.log.Infof("Job %s started", job.Name)
			if err := job.Run(context.Background()); err != nil {
				s.log.Errorf("Job %s failed after %s: %v", job.Name, time.Since(start), err)
				return
			}
			s.log.Infof("Job %s finished in %s", job.Name, time.Since(start))
		})
		if err != nil {
			return fmt.Errorf("failed to register job %s (%q): %w", job.Name, job.Spec, err)
		}
	}
	return nil
}

// Start launches the schedule in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
