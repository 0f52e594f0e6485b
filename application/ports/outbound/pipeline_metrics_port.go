package outbound

import (
	"avatar-video-api/domain"
	"context"
	"time"
)

type PipelineMetricsPort interface {
	JobSubmitted(ctx context.Context)
	JobFinished(ctx context.Context, status domain.JobStatus, duration time.Duration)
	PollAttempt(ctx context.Context, stage domain.Stage, outcome string)
}
