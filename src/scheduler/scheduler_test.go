package scheduler

import (
	"io"
	"sync/atomic"
	"testing"
	"time"

	"market-dashboard/src/dashboard"
	"market-dashboard/src/logger"
	"market-dashboard/src/models"
	"market-dashboard/src/storage"
)

type cleanupCounter struct {
	storage.NoopDB
	calls int32
}

func (c *cleanupCounter) CleanupOldData() error {
	atomic.AddInt32(&c.calls, 1)
	return nil
}

func TestSchedulerRunsJobs(t *testing.T) {
	db := &cleanupCounter{}
	var ticks int32
	post := func(ev dashboard.Event) bool {
		if _, ok := ev.(dashboard.ClockEvent); ok {
			atomic.AddInt32(&ticks, 1)
		}
		return true
	}

	s := NewScheduler(db, post, logger.NewLoggerTo(io.Discard, "INFO", "scheduler"))
	if err := s.RegisterAll(models.MScheduleConfig{CleanupCron: "* * * * * *", ClockCron: "* * * * * *"}); err != nil {
		t.Fatal(err)
	}
	s.Start()
	defer s.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if atomic.LoadInt32(&db.calls) > 0 && atomic.LoadInt32(&ticks) > 0 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("cleanup=%d ticks=%d", atomic.LoadInt32(&db.calls), atomic.LoadInt32(&ticks))
}

func TestRegisterRejectsBadCronExpression(t *testing.T) {
	s := NewScheduler(storage.NoopDB{}, nil, logger.NewLoggerTo(io.Discard, "INFO", "scheduler"))
	if err := s.RegisterAll(models.MScheduleConfig{CleanupCron: "not a cron"}); err == nil {
		t.Error("bad cron spec accepted")
	}
}

func TestEmptySpecsRegisterNothing(t *testing.T) {
	s := NewScheduler(storage.NoopDB{}, func(dashboard.Event) bool { return true }, logger.NewLoggerTo(io.Discard, "INFO", "scheduler"))
	if err := s.RegisterAll(models.MScheduleConfig{}); err != nil {
		t.Fatal(err)
	}
	if n := len(s.Cron.Entries()); n != 0 {
		t.Errorf("entries = %d", n)
	}
}
