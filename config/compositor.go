package config

import (
	"fmt"
	"os"
)

type CompositorConfig struct {
	ApiUrl string
	ApiKey string
	// Stage selects the compositor environment, e.g. "stage" or "v1".
	Stage string
}

func GetCompositorConfig() (*CompositorConfig, error) {
	apiUrl := os.Getenv("COMPOSITOR_API_URL")
	if apiUrl == "" {
		return nil, fmt.Errorf("COMPOSITOR_API_URL must be set")
	}
	apiKey := os.Getenv("COMPOSITOR_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("COMPOSITOR_API_KEY must be set")
	}
	stage := os.Getenv("COMPOSITOR_STAGE")
	if stage == "" {
		stage = "v1"
	}
	return &CompositorConfig{
		ApiUrl: apiUrl,
		ApiKey: apiKey,
		Stage:  stage,
	}, nil
}
