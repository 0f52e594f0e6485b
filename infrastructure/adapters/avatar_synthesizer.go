package adapters

import (
	"avatar-video-api/application/ports/outbound"
	"avatar-video-api/config"
	"avatar-video-api/domain"
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
)

type avatarVideoRequest struct {
	Script         string `json:"script"`
	VoiceID        string `json:"voice_id"`
	AvatarID       string `json:"avatar_id,omitempty"`
	AvatarMediaURL string `json:"avatar_media_url,omitempty"`
	Quality        string `json:"quality"`
}

type avatarVideoCreated struct {
	JobID string `json:"job_id"`
}

type avatarVideoStatus struct {
	Status   string `json:"status"`
	VideoURL string `json:"video_url"`
	Error    string `json:"error"`
}

type avatarSynthesizer struct {
	ContentFetcher
	avatarConfig *config.AvatarConfig
	logger       outbound.LoggerPort
}

func NewAvatarSynthesizer(contentFetcher ContentFetcher, avatarConfig *config.AvatarConfig, logger outbound.LoggerPort) outbound.AvatarSynthesizerPort {
	return &avatarSynthesizer{
		ContentFetcher: contentFetcher,
		avatarConfig:   avatarConfig,
		logger:         logger,
	}
}

func (a *avatarSynthesizer) Start(ctx context.Context, req outbound.SynthesisRequest) (string, error) {
	body := avatarVideoRequest{
		Script:         req.Script,
		VoiceID:        req.VoiceID,
		AvatarID:       req.AvatarID,
		AvatarMediaURL: req.AvatarMediaURL,
		Quality:        qualityName(req.HighQuality),
	}

	var created avatarVideoCreated
	err := a.FetchJSON(ctx, http.MethodPost, a.endpoint(), a.headers(), body, &created)
	if err != nil {
		a.logger.ErrorWithFields(err, "Failed to start avatar synthesis", map[string]interface{}{
			"voice_id":  req.VoiceID,
			"avatar_id": req.AvatarID,
		})
		return "", domain.NewStageError(domain.SynthesizingAvatarStage, err)
	}
	if created.JobID == "" {
		return "", domain.NewStageError(domain.SynthesizingAvatarStage, errors.New("avatar service returned no job id"))
	}

	return created.JobID, nil
}

func (a *avatarSynthesizer) Status(ctx context.Context, externalJobID string) (domain.StageStatus, error) {
	var status avatarVideoStatus
	err := a.FetchJSON(ctx, http.MethodGet, a.endpoint()+"/"+url.PathEscape(externalJobID), a.headers(), nil, &status)
	if err != nil {
		return domain.StageStatus{}, domain.NewStageError(domain.SynthesizingAvatarStage, err)
	}

	return toStageStatus(status.Status, status.VideoURL, status.Error), nil
}

func (a *avatarSynthesizer) endpoint() string {
	return strings.TrimSuffix(a.avatarConfig.ApiUrl, "/") + "/v1/videos"
}

func (a *avatarSynthesizer) headers() map[string]string {
	return map[string]string{
		"x-api-key": a.avatarConfig.ApiKey,
	}
}

func qualityName(high bool) string {
	if high {
		return "high"
	}
	return "standard"
}

// toStageStatus maps the remote vocabulary of both rendering services onto StageStatus.
func toStageStatus(remote, resultURL, remoteErr string) domain.StageStatus {
	switch strings.ToLower(remote) {
	case "completed", "complete", "done", "succeeded":
		return domain.StageStatus{Completed: true, ResultURL: resultURL, StatusText: remote}
	case "failed", "error", "cancelled":
		text := remoteErr
		if text == "" {
			text = remote
		}
		return domain.StageStatus{Failed: true, StatusText: text}
	default:
		return domain.StageStatus{StatusText: remote}
	}
}
