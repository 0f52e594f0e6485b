package services

import (
	"avatar-video-api/application/ports/inbound"
	"avatar-video-api/application/ports/outbound"
	"avatar-video-api/domain"
	"context"
)

type mediaUploadStage struct {
	logger   outbound.LoggerPort
	uploader outbound.MediaUploaderPort
	cleaner  outbound.MediaCleanerPort
}

func NewMediaUploadStage(logger outbound.LoggerPort, uploader outbound.MediaUploaderPort, cleaner outbound.MediaCleanerPort) inbound.MediaUploadStagePort {
	return &mediaUploadStage{
		logger:   logger,
		uploader: uploader,
		cleaner:  cleaner,
	}
}

// Upload never aborts the job. A failed upload leaves the reference absent.
func (m *mediaUploadStage) Upload(ctx context.Context, params inbound.UploadMediaParams, cleanup *domain.CleanupSet) inbound.ResolvedMedia {
	return inbound.ResolvedMedia{
		SupportingMediaURL:     m.resolve(ctx, params, domain.SupportingMediaKind, params.SupportingMedia, cleanup),
		VoiceCharacterMediaURL: m.resolve(ctx, params, domain.VoiceCharacterMediaKind, params.VoiceCharacterMedia, cleanup),
	}
}

func (m *mediaUploadStage) resolve(ctx context.Context, params inbound.UploadMediaParams, kind domain.MediaKind,
	media *domain.MediaInput, cleanup *domain.CleanupSet) string {
	if media == nil {
		return ""
	}
	if media.IsExternalReference() {
		return media.URL
	}
	if !media.HasContent() {
		m.logger.WarnWithFields("Media has neither content nor a remote url, ignoring it", map[string]interface{}{
			"job_id": params.JobID,
			"kind":   kind,
		})
		return ""
	}

	uploaded, err := m.uploader.Upload(ctx, outbound.MediaUpload{
		JobID:       params.JobID,
		UserID:      params.UserID,
		Kind:        kind,
		FileName:    media.FileName,
		ContentType: media.ContentType,
		Content:     media.Content,
	})
	if err != nil {
		m.logger.ErrorWithFields(err, "Media upload failed, continuing without it", map[string]interface{}{
			"job_id": params.JobID,
			"kind":   kind,
		})
		return ""
	}
	if uploaded.Ephemeral {
		m.logger.WarnWithFields("Media only stored locally, continuing without it", map[string]interface{}{
			"job_id": params.JobID,
			"kind":   kind,
			"url":    uploaded.URL,
		})
		// no stage can reach a local copy, discard it right away
		if err := m.cleaner.Delete(ctx, []string{uploaded.URL}); err != nil {
			m.logger.ErrorWithFields(err, "Failed to discard local media copy", map[string]interface{}{
				"job_id": params.JobID,
				"url":    uploaded.URL,
			})
		}
		return ""
	}

	cleanup.Add(uploaded.URL)
	m.logger.DebugWithFields("Media uploaded", map[string]interface{}{
		"job_id": params.JobID,
		"kind":   kind,
		"url":    uploaded.URL,
	})
	return uploaded.URL
}
