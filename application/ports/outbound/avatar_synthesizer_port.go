package outbound

import (
	"avatar-video-api/domain"
	"context"
)

type SynthesisRequest struct {
	Script         string
	VoiceID        string
	AvatarID       string
	AvatarMediaURL string
	HighQuality    bool
}

type AvatarSynthesizerPort interface {
	Start(ctx context.Context, req SynthesisRequest) (string, error)
	Status(ctx context.Context, externalJobID string) (domain.StageStatus, error)
}
