package adapters

import (
	"avatar-video-api/application/ports/outbound"
	"avatar-video-api/config"
	"avatar-video-api/domain"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

type renderClip struct {
	Src    string  `json:"src"`
	Start  float64 `json:"start"`
	Length string  `json:"length,omitempty"`
}

type renderTrack struct {
	Clips []renderClip `json:"clips"`
}

type renderOutput struct {
	Format     string `json:"format"`
	Resolution string `json:"resolution"`
}

type renderRequest struct {
	Reference string        `json:"reference"`
	Tracks    []renderTrack `json:"tracks"`
	Output    renderOutput  `json:"output"`
}

type renderResponse struct {
	Success  bool `json:"success"`
	Response struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		URL    string `json:"url"`
		Error  string `json:"error"`
	} `json:"response"`
}

type videoCompositor struct {
	ContentFetcher
	compositorConfig *config.CompositorConfig
	logger           outbound.LoggerPort
}

func NewVideoCompositor(contentFetcher ContentFetcher, compositorConfig *config.CompositorConfig, logger outbound.LoggerPort) outbound.VideoCompositorPort {
	return &videoCompositor{
		ContentFetcher:   contentFetcher,
		compositorConfig: compositorConfig,
		logger:           logger,
	}
}

// Start lays the avatar video on top and the supporting media, when present, underneath.
func (v *videoCompositor) Start(ctx context.Context, req outbound.CompositionRequest) (string, error) {
	tracks := []renderTrack{{Clips: []renderClip{{Src: req.AvatarVideoURL, Length: "auto"}}}}
	if req.SupportingMediaURL != "" {
		tracks = append(tracks, renderTrack{Clips: []renderClip{{Src: req.SupportingMediaURL, Length: "end"}}})
	}

	resolution := "sd"
	if req.HighQuality {
		resolution = "hd"
	}

	var res renderResponse
	err := v.FetchJSON(ctx, http.MethodPost, v.endpoint(), v.headers(), renderRequest{
		Reference: req.JobID,
		Tracks:    tracks,
		Output:    renderOutput{Format: "mp4", Resolution: resolution},
	}, &res)
	if err != nil {
		v.logger.ErrorWithFields(err, "Failed to start composition", map[string]interface{}{
			"job_id": req.JobID,
		})
		return "", domain.NewStageError(domain.ComposingVideoStage, err)
	}
	if !res.Success || res.Response.ID == "" {
		return "", domain.NewStageError(domain.ComposingVideoStage, errors.New("compositor returned no render id"))
	}

	return res.Response.ID, nil
}

func (v *videoCompositor) Status(ctx context.Context, renderID string) (domain.StageStatus, error) {
	var res renderResponse
	err := v.FetchJSON(ctx, http.MethodGet, v.endpoint()+"/"+url.PathEscape(renderID), v.headers(), nil, &res)
	if err != nil {
		return domain.StageStatus{}, domain.NewStageError(domain.ComposingVideoStage, err)
	}
	if !res.Success {
		return domain.StageStatus{}, domain.NewStageError(domain.ComposingVideoStage, fmt.Errorf("render %s status unavailable", renderID))
	}

	return toStageStatus(res.Response.Status, res.Response.URL, res.Response.Error), nil
}

func (v *videoCompositor) endpoint() string {
	return fmt.Sprintf("%s/%s/render", strings.TrimSuffix(v.compositorConfig.ApiUrl, "/"), v.compositorConfig.Stage)
}

func (v *videoCompositor) headers() map[string]string {
	return map[string]string{
		"x-api-key": v.compositorConfig.ApiKey,
	}
}
