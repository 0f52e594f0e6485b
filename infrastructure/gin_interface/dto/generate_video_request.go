package dto

import "avatar-video-api/domain"

// MediaInput carries either a remote url or base64 encoded content.
type MediaInput struct {
	URL         string `json:"url,omitempty"`
	FileName    string `json:"file_name,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Content     []byte `json:"content,omitempty"`
}

// GenerateVideoRequest is decoded as is. Semantic validation happens inside the job so an
// invalid request still gets a job id and a failed progress record.
type GenerateVideoRequest struct {
	ScriptSource        string      `json:"script_source"`
	Topic               string      `json:"topic,omitempty"`
	Script              string      `json:"script,omitempty"`
	VoiceID             string      `json:"voice_id"`
	AvatarID            string      `json:"avatar_id,omitempty"`
	SupportingMedia     *MediaInput `json:"supporting_media,omitempty"`
	VoiceCharacterMedia *MediaInput `json:"voice_character_media,omitempty"`
	HighQuality         bool        `json:"high_quality,omitempty"`
	UserID              string      `json:"user_id,omitempty"`
}

type GenerateVideoResponse struct {
	JobID string `json:"job_id"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (r GenerateVideoRequest) ToDomain() domain.GenerationRequest {
	return domain.GenerationRequest{
		ScriptSource:        domain.ScriptSource(r.ScriptSource),
		Topic:               r.Topic,
		Script:              r.Script,
		VoiceID:             r.VoiceID,
		AvatarID:            r.AvatarID,
		SupportingMedia:     r.SupportingMedia.toDomain(),
		VoiceCharacterMedia: r.VoiceCharacterMedia.toDomain(),
		HighQuality:         r.HighQuality,
		UserID:              r.UserID,
	}
}

func (m *MediaInput) toDomain() *domain.MediaInput {
	if m == nil {
		return nil
	}
	return &domain.MediaInput{
		URL:         m.URL,
		FileName:    m.FileName,
		ContentType: m.ContentType,
		Content:     m.Content,
	}
}
