package automation

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Job is one scheduled pass; both batch jobs satisfy it.
type Job interface {
	Run(ctx context.Context) error
}

// SchedulerConfig holds the cron wiring for the two attendance jobs.
type SchedulerConfig struct {
	// AutoLogoutSpec is a standard 5-field cron expression.
	// Defaults to hourly on the hour.
	AutoLogoutSpec string

	// AutoAbsentSpec defaults to 23:50 daily, near end of day so
	// late clock-ins are not falsely marked absent.
	AutoAbsentSpec string

	// RunTimeout bounds one pass of either job. Defaults to 5 minutes.
	RunTimeout time.Duration

	Location *time.Location
}

// Scheduler drives the attendance jobs on wall-clock schedules.
type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration
}

func NewScheduler(cfg SchedulerConfig, autoLogout, autoAbsent Job) (*Scheduler, error) {
	if cfg.AutoLogoutSpec == "" {
		cfg.AutoLogoutSpec = "0 * * * *"
	}
	if cfg.AutoAbsentSpec == "" {
		cfg.AutoAbsentSpec = "50 23 * * *"
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 5 * time.Minute
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(cfg.Location)),
		timeout: cfg.RunTimeout,
	}
	if _, err := s.cron.AddFunc(cfg.AutoLogoutSpec, s.wrap("auto_logout", autoLogout)); err != nil {
		return nil, fmt.Errorf("auto-logout spec %q: %w", cfg.AutoLogoutSpec, err)
	}
	if _, err := s.cron.AddFunc(cfg.AutoAbsentSpec, s.wrap("auto_absent", autoAbsent)); err != nil {
		return nil, fmt.Errorf("auto-absent spec %q: %w", cfg.AutoAbsentSpec, err)
	}
	return s, nil
}

func (s *Scheduler) wrap(name string, job Job) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		started := time.Now()
		if err := job.Run(ctx); err != nil {
			log.Error().Err(err).Str("module", "automation").Str("job", name).Msg("job run failed")
			return
		}
		log.Info().Str("module", "automation").Str("job", name).Dur("took", time.Since(started)).Msg("job run done")
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info().Str("module", "automation").Msg("scheduler started")
}

// Stop halts scheduling and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Str("module", "automation").Msg("scheduler stopped")
}
