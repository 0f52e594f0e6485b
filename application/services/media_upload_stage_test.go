package services

import (
	"avatar-video-api/application/ports/inbound"
	"avatar-video-api/domain"
	"avatar-video-api/mock"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestMediaUploadStage_Upload(t *testing.T) {
	uploader := &mock.MediaUploader{}
	stage := NewMediaUploadStage(newTestLogger(), uploader, &mock.MediaCleaner{})
	cleanup := domain.NewCleanupSet()

	media := stage.Upload(context.Background(), inbound.UploadMediaParams{
		JobID:               "job-1",
		UserID:              "user-1",
		SupportingMedia:     &domain.MediaInput{URL: "HTTPS://cdn.example.com/bg.mp4"},
		VoiceCharacterMedia: &domain.MediaInput{FileName: "face.png", Content: []byte("png")},
	}, cleanup)

	if media.SupportingMediaURL != "HTTPS://cdn.example.com/bg.mp4" {
		t.Errorf("expected the external reference to be kept, got %q", media.SupportingMediaURL)
	}
	if !strings.HasPrefix(media.VoiceCharacterMediaURL, "https://uploads.example.com/job-1/voice_character/") {
		t.Errorf("unexpected uploaded url %q", media.VoiceCharacterMediaURL)
	}

	uploads := uploader.Uploads()
	if len(uploads) != 1 || uploads[0].Kind != domain.VoiceCharacterMediaKind || uploads[0].UserID != "user-1" {
		t.Errorf("unexpected uploads %+v", uploads)
	}
	if urls := cleanup.Drain(); len(urls) != 1 || urls[0] != media.VoiceCharacterMediaURL {
		t.Errorf("expected only the uploaded url to be scheduled for cleanup, got %v", urls)
	}
}

func TestMediaUploadStage_FailuresLeaveReferenceAbsent(t *testing.T) {
	tests := []struct {
		name     string
		uploader *mock.MediaUploader
		media    *domain.MediaInput
		uploads  int
		discards int
	}{
		{"upload error", &mock.MediaUploader{Err: errors.New("s3 down")}, &domain.MediaInput{FileName: "a.mp4", Content: []byte("x")}, 1, 0},
		{"ephemeral upload", &mock.MediaUploader{Ephemeral: true}, &domain.MediaInput{FileName: "a.mp4", Content: []byte("x")}, 1, 1},
		{"no content", &mock.MediaUploader{}, &domain.MediaInput{FileName: "a.mp4"}, 0, 0},
		{"absent", &mock.MediaUploader{}, nil, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleaner := &mock.MediaCleaner{}
			stage := NewMediaUploadStage(newTestLogger(), tt.uploader, cleaner)
			cleanup := domain.NewCleanupSet()

			media := stage.Upload(context.Background(), inbound.UploadMediaParams{
				JobID:           "job-1",
				SupportingMedia: tt.media,
			}, cleanup)

			if media.SupportingMediaURL != "" {
				t.Errorf("expected no reference, got %q", media.SupportingMediaURL)
			}
			if cleanup.Len() != 0 {
				t.Errorf("expected nothing scheduled for cleanup, got %d", cleanup.Len())
			}
			if got := len(tt.uploader.Uploads()); got != tt.uploads {
				t.Errorf("expected %d upload attempts, got %d", tt.uploads, got)
			}
			calls := cleaner.Calls()
			if len(calls) != tt.discards {
				t.Fatalf("expected %d discards, got %v", tt.discards, calls)
			}
			for _, call := range calls {
				if len(call) != 1 || !strings.HasPrefix(call[0], "file://") {
					t.Errorf("expected only the local copy to be discarded, got %v", call)
				}
			}
		})
	}
}
