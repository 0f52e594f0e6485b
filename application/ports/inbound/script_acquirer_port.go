package inbound

import (
	"avatar-video-api/domain"
	"context"
)

type ScriptAcquirerPort interface {
	Acquire(ctx context.Context, req domain.GenerationRequest) (string, error)
}
