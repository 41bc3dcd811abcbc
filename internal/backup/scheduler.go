package backup

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Runner runs one backup and reports failures to the channel.
type Runner interface {
	Run(ctx context.Context, reason Reason) (Result, error)
	ReportFailure(ctx context.Context, err error) error
}

// Schedule is a weekly slot. Weekday counts from Monday (0) to Sunday (6).
type Schedule struct {
	Weekday  int
	Hour     int
	Minute   int
	Location *time.Location
}

// NextWeeklyRun returns the next instant after now that falls on the slot,
// in now's location. A slot earlier today rolls over to next week.
func NextWeeklyRun(now time.Time, weekday, hour, minute int) time.Time {
	target := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	days := (weekday - mondayIndex(target.Weekday()) + 7) % 7
	if days == 0 && !target.After(now) {
		days = 7
	}
	return target.AddDate(0, 0, days)
}

func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// Scheduler fires the Runner once per weekly slot and remembers how the
// last backup went.
type Scheduler struct {
	runner   Runner
	schedule Schedule
	now      func() time.Time
	enabled  bool

	mu      sync.Mutex
	next    time.Time
	hasRun  bool
	lastAt  time.Time
	lastOK  bool
	lastMsg string
}

// NewScheduler creates a Scheduler. The first slot is computed immediately,
// so a process started after this week's slot waits for next week.
func NewScheduler(runner Runner, schedule Schedule, enabled bool, now func() time.Time) *Scheduler {
	if now == nil {
		now = time.Now
	}
	if schedule.Location == nil {
		schedule.Location = time.UTC
	}
	s := &Scheduler{
		runner:   runner,
		schedule: schedule,
		now:      now,
		enabled:  enabled,
	}
	s.next = s.nextAfter(now())
	return s
}

func (s *Scheduler) nextAfter(t time.Time) time.Time {
	return NextWeeklyRun(t.In(s.schedule.Location), s.schedule.Weekday, s.schedule.Hour, s.schedule.Minute)
}

// Tick fires a backup if the slot has been reached. The next slot is
// stored before the backup starts, so overlapping ticks fire at most once
// per slot. It reports whether a backup ran.
func (s *Scheduler) Tick(ctx context.Context) bool {
	if !s.enabled {
		return false
	}
	s.mu.Lock()
	now := s.now()
	if now.Before(s.next) {
		s.mu.Unlock()
		return false
	}
	slot := s.next
	s.next = s.nextAfter(now.Add(time.Second))
	s.mu.Unlock()

	log.Info("Scheduled backup starting", "slot", slot, "next", s.NextRun())
	res, err := s.runner.Run(ctx, ReasonScheduled)
	s.Record(res, err)
	if err != nil {
		if rerr := s.runner.ReportFailure(ctx, err); rerr != nil {
			log.Warn("Failed to post backup failure notice", "error", rerr)
		}
	}
	return true
}

// Run polls once a minute until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	if !s.enabled {
		log.Info("Backups disabled, scheduler not started")
		return
	}
	log.Info("Backup scheduler started", "next", s.NextRun())
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("Backup scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Record stores the outcome of a backup run.
func (s *Scheduler) Record(res Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasRun = true
	s.lastAt = s.now().UTC()
	s.lastOK = err == nil
	if err != nil {
		s.lastMsg = err.Error()
	} else {
		s.lastMsg = res.Filename
	}
}

// NextRun returns the next scheduled slot.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// Status returns a snapshot of the scheduler state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Enabled:     s.enabled,
		HasRun:      s.hasRun,
		LastAt:      s.lastAt,
		LastOK:      s.lastOK,
		LastMessage: s.lastMsg,
		NextRun:     s.next,
		Location:    s.schedule.Location.String(),
	}
}
