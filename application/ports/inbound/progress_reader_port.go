package inbound

import (
	"avatar-video-api/domain"
	"context"
	"time"
)

type ProgressReaderPort interface {
	Read(ctx context.Context, jobID string) (domain.ProgressRecord, error)
	Watch(ctx context.Context, jobID string, interval time.Duration) (<-chan domain.ProgressRecord, <-chan error)
}
