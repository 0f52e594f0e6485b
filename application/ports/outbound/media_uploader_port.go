package outbound

import (
	"avatar-video-api/domain"
	"context"
)

type MediaUpload struct {
	JobID       string
	UserID      string
	Kind        domain.MediaKind
	FileName    string
	ContentType string
	Content     []byte
}

type MediaUploaderPort interface {
	Upload(ctx context.Context, media MediaUpload) (domain.UploadedMedia, error)
}

type MediaCleanerPort interface {
	Delete(ctx context.Context, urls []string) error
}
