package scheduler

import (
	"fmt"
	"time"

	"market-dashboard/src/dashboard"
	"market-dashboard/src/interfaces"
	"market-dashboard/src/logger"
	"market-dashboard/src/models"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the periodic housekeeping jobs: journal cleanup and the
// market clock tick.
type Scheduler struct {
	Cron     *cron.Cron
	Database interfaces.IDatabase
	Post     func(dashboard.Event) bool
	Logger   *logger.Logger
}

// -----------------------------------------------------------------------------

func NewScheduler(db interfaces.IDatabase, post func(dashboard.Event) bool, log *logger.Logger) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Database: db,
		Post:     post,
		Logger:   log,
	}
}

// RegisterAll adds the configured jobs. An empty spec disables its job.
func (s *Scheduler) RegisterAll(cfg models.MScheduleConfig) error {
	if cfg.CleanupCron != "" && s.Database != nil {
		if _, err := s.Cron.AddFunc(cfg.CleanupCron, s.cleanup); err != nil {
			return fmt.Errorf("register cleanup task: %w", err)
		}
	}
	if cfg.ClockCron != "" && s.Post != nil {
		if _, err := s.Cron.AddFunc(cfg.ClockCron, s.Tick); err != nil {
			return fmt.Errorf("register clock task: %w", err)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Logger.Info("Scheduler started with %d jobs", len(s.Cron.Entries()))
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Logger.Info("Scheduler stopped")
}

// -----------------------------------------------------------------------------

// Tick posts a clock event so the market status is refreshed.
func (s *Scheduler) Tick() {
	s.Post(dashboard.ClockEvent{Now: time.Now()})
}

func (s *Scheduler) cleanup() {
	if err := s.Database.CleanupOldData(); err != nil {
		s.Logger.Error("Journal cleanup failed: %v", err)
	}
}
