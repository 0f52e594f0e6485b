package inbound

import (
	"avatar-video-api/domain"
	"context"
)

type VideoPipelinePort interface {
	// Submit records a new job and starts it in the background. The returned id is usable
	// with ProgressReaderPort immediately.
	Submit(ctx context.Context, req domain.GenerationRequest) (string, error)
	Shutdown(ctx context.Context) error
}
