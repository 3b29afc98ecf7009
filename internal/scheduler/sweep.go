package scheduler

import (
	"context"

	leaseservice "leasekeeper/internal/lease/service"
)

const SweepJobName = "lease-status-sweep"

type Sweeper interface {
	SweepStatuses(ctx context.Context) (*leaseservice.SweepResult, error)
}

// SweepJob persists calendar-driven lease status changes.
type SweepJob struct {
	sweeper Sweeper
}

func NewSweepJob(sweeper Sweeper) *SweepJob {
	return &SweepJob{sweeper: sweeper}
}

func (j *SweepJob) Name() string { return SweepJobName }

func (j *SweepJob) Run(ctx context.Context) error {
	_, err := j.sweeper.SweepStatuses(ctx)
	return err
}
