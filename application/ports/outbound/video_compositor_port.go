package outbound

import (
	"avatar-video-api/domain"
	"context"
)

type CompositionRequest struct {
	JobID              string
	AvatarVideoURL     string
	SupportingMediaURL string
	HighQuality        bool
}

type VideoCompositorPort interface {
	Start(ctx context.Context, req CompositionRequest) (string, error)
	Status(ctx context.Context, renderID string) (domain.StageStatus, error)
}
