package services

import (
	"avatar-video-api/application/ports/outbound"
	"avatar-video-api/domain"
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	DefaultPollInterval    = 5 * time.Second
	DefaultPollMaxAttempts = 60
)

type CheckStatusFunc func(ctx context.Context) (domain.StageStatus, error)

type PollOptions struct {
	Stage       domain.Stage
	Interval    time.Duration
	MaxAttempts int
}

// PollLoop drives a status check to completion at a fixed cadence under a hard attempt ceiling.
type PollLoop struct {
	logger  outbound.LoggerPort
	metrics outbound.PipelineMetricsPort
}

func NewPollLoop(logger outbound.LoggerPort, metrics outbound.PipelineMetricsPort) *PollLoop {
	return &PollLoop{
		logger:  logger,
		metrics: metrics,
	}
}

// Poll waits opts.Interval before each attempt. Transient check errors are logged and
// consume the attempt. A remote failure aborts immediately, as does ctx cancellation.
func (p *PollLoop) Poll(ctx context.Context, check CheckStatusFunc, opts PollOptions, onTick func(status string)) (domain.StageStatus, error) {
	if opts.Interval <= 0 {
		opts.Interval = DefaultPollInterval
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultPollMaxAttempts
	}

	timer := time.NewTimer(opts.Interval)
	defer timer.Stop()

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		if attempt > 1 {
			timer.Reset(opts.Interval)
		}

		select {
		case <-ctx.Done():
			p.metrics.PollAttempt(ctx, opts.Stage, "cancelled")
			return domain.StageStatus{}, fmt.Errorf("%w: %s polling stopped: %v", domain.ErrCancelled, opts.Stage, ctx.Err())
		case <-timer.C:
		}

		status, err := check(ctx)
		if err != nil {
			if ctx.Err() != nil {
				p.metrics.PollAttempt(ctx, opts.Stage, "cancelled")
				return domain.StageStatus{}, fmt.Errorf("%w: %s polling stopped: %v", domain.ErrCancelled, opts.Stage, ctx.Err())
			}
			p.metrics.PollAttempt(ctx, opts.Stage, "error")
			p.logger.WarnWithFields("Status check failed, will retry", map[string]interface{}{
				"stage":   opts.Stage,
				"attempt": attempt,
				"error":   err.Error(),
			})
			continue
		}

		if status.Failed {
			p.metrics.PollAttempt(ctx, opts.Stage, "failed")
			reason := status.StatusText
			if reason == "" {
				reason = "external job reported failure"
			}
			return status, domain.NewStageError(opts.Stage, errors.New(reason))
		}

		if status.Completed {
			p.metrics.PollAttempt(ctx, opts.Stage, "completed")
			p.logger.DebugWithFields("External job completed", map[string]interface{}{
				"stage":   opts.Stage,
				"attempt": attempt,
			})
			return status, nil
		}

		p.metrics.PollAttempt(ctx, opts.Stage, "pending")
		if onTick != nil {
			onTick(status.StatusText)
		}
	}

	return domain.StageStatus{}, domain.NewStageError(opts.Stage,
		fmt.Errorf("%w after %d attempts at %s interval", domain.ErrPollTimeout, opts.MaxAttempts, opts.Interval))
}
