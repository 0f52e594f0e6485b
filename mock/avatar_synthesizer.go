package mock

import (
	"avatar-video-api/application/ports/outbound"
	"avatar-video-api/domain"
	"context"
)

type AvatarSynthesizer struct {
	*Runner
}

func NewAvatarSynthesizer(options RunnerOptions) *AvatarSynthesizer {
	if options.ResultPrefix == "" {
		options.ResultPrefix = "https://cdn.example.com/avatar"
	}
	return &AvatarSynthesizer{Runner: NewRunner(options)}
}

func (a *AvatarSynthesizer) Start(ctx context.Context, req outbound.SynthesisRequest) (string, error) {
	return a.start(ctx, req)
}

func (a *AvatarSynthesizer) Status(ctx context.Context, externalJobID string) (domain.StageStatus, error) {
	return a.status(ctx, externalJobID)
}

type VideoCompositor struct {
	*Runner
}

func NewVideoCompositor(options RunnerOptions) *VideoCompositor {
	if options.ResultPrefix == "" {
		options.ResultPrefix = "https://cdn.example.com/final"
	}
	return &VideoCompositor{Runner: NewRunner(options)}
}

func (v *VideoCompositor) Start(ctx context.Context, req outbound.CompositionRequest) (string, error) {
	return v.start(ctx, req)
}

func (v *VideoCompositor) Status(ctx context.Context, renderID string) (domain.StageStatus, error) {
	return v.status(ctx, renderID)
}
