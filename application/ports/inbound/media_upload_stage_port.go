package inbound

import (
	"avatar-video-api/domain"
	"context"
)

type UploadMediaParams struct {
	JobID               string
	UserID              string
	SupportingMedia     *domain.MediaInput
	VoiceCharacterMedia *domain.MediaInput
}

// ResolvedMedia holds the references the later stages can use. Empty means absent.
type ResolvedMedia struct {
	SupportingMediaURL     string
	VoiceCharacterMediaURL string
}

type MediaUploadStagePort interface {
	Upload(ctx context.Context, params UploadMediaParams, cleanup *domain.CleanupSet) ResolvedMedia
}
