package mock

import (
	"avatar-video-api/application/ports/outbound"
	"avatar-video-api/domain"
	"context"
	"fmt"
	"sync"
)

type MediaUploader struct {
	mu        sync.Mutex
	Err       error
	Ephemeral bool
	uploads   []outbound.MediaUpload
}

func (m *MediaUploader) Upload(ctx context.Context, media outbound.MediaUpload) (domain.UploadedMedia, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads = append(m.uploads, media)
	if m.Err != nil {
		return domain.UploadedMedia{}, m.Err
	}
	if m.Ephemeral {
		return domain.UploadedMedia{URL: fmt.Sprintf("file:///tmp/%s-%s", media.JobID, media.FileName), Ephemeral: true}, nil
	}
	return domain.UploadedMedia{
		URL: fmt.Sprintf("https://uploads.example.com/%s/%s/%s", media.JobID, media.Kind, media.FileName),
	}, nil
}

func (m *MediaUploader) Uploads() []outbound.MediaUpload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]outbound.MediaUpload(nil), m.uploads...)
}

type MediaCleaner struct {
	mu      sync.Mutex
	Err     error
	deleted [][]string
}

func (m *MediaCleaner) Delete(ctx context.Context, urls []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, append([]string(nil), urls...))
	return m.Err
}

// Calls returns the url batches passed to Delete.
func (m *MediaCleaner) Calls() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]string(nil), m.deleted...)
}
