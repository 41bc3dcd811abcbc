package backup

import (
	"context"
	"errors"
	"time"
)

// Service is what commands and the dashboard use to drive backups.
type Service struct {
	pipeline  *Pipeline
	scheduler *Scheduler
}

// NewService wires a pipeline to a weekly scheduler.
func NewService(pipeline *Pipeline, schedule Schedule, now func() time.Time) *Service {
	return &Service{
		pipeline:  pipeline,
		scheduler: NewScheduler(pipeline, schedule, pipeline.Enabled(), now),
	}
}

// Enabled reports whether backups are configured.
func (s *Service) Enabled() bool {
	return s.pipeline.Enabled()
}

// CreateBackupNow takes and delivers a backup immediately.
func (s *Service) CreateBackupNow(ctx context.Context) (Result, error) {
	res, err := s.pipeline.Run(ctx, ReasonManual)
	if errors.Is(err, ErrNotConfigured) {
		return res, err
	}
	s.scheduler.Record(res, err)
	return res, err
}

// VerifyLatest checks the newest backup found in the last scanLimit channel messages.
func (s *Service) VerifyLatest(ctx context.Context, scanLimit int) (VerifyResult, error) {
	return s.pipeline.Verify(ctx, scanLimit)
}

// LastBackupStatus reports the last run and the next scheduled one.
func (s *Service) LastBackupStatus() Status {
	return s.scheduler.Status()
}

// RunScheduler blocks running the weekly schedule until ctx is cancelled.
func (s *Service) RunScheduler(ctx context.Context) {
	s.scheduler.Run(ctx)
}
