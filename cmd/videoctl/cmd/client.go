package cmd

import (
	"avatar-video-api/domain"
	"avatar-video-api/infrastructure/gin_interface/dto"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// VideoClient calls the avatar video API.
type VideoClient struct {
	BaseURL    string
	Token      string
	Authorizer Authorizer
	HTTPClient *http.Client
}

func NewVideoClient(baseURL, token string) *VideoClient {
	return &VideoClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Token:   token,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError represents an error response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// SubmitVideo sends POST /videos.
func (c *VideoClient) SubmitVideo(ctx context.Context, req dto.GenerateVideoRequest) (*dto.GenerateVideoResponse, error) {
	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var result dto.GenerateVideoResponse
	if err := c.do(ctx, http.MethodPost, "/videos", bytes.NewReader(bodyBytes), http.StatusAccepted, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetProgress sends GET /videos/{id}/progress.
func (c *VideoClient) GetProgress(ctx context.Context, jobID string) (*domain.ProgressRecord, error) {
	var record domain.ProgressRecord
	if err := c.do(ctx, http.MethodGet, "/videos/"+url.PathEscape(jobID)+"/progress", nil, http.StatusOK, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (c *VideoClient) do(ctx context.Context, method, path string, body io.Reader, wantStatus int, out interface{}) error {
	httpReq, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	token := c.Token
	if token == "" && c.Authorizer != nil {
		token, err = c.Authorizer.Authorize(ctx)
		if err != nil {
			return fmt.Errorf("failed to authorize: %w", err)
		}
	}
	if token != "" {
		httpReq.Header.Add("Authorization", fmt.Sprintf("Bearer %s", token))
	}
	httpReq.Header.Add("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantStatus {
		var apiErr dto.ErrorResponse
		message := string(respBody)
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			message = apiErr.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: message}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
