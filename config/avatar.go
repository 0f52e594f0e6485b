package config

import (
	"fmt"
	"os"
)

type AvatarConfig struct {
	ApiUrl string
	ApiKey string
}

func GetAvatarConfig() (*AvatarConfig, error) {
	apiUrl := os.Getenv("AVATAR_API_URL")
	if apiUrl == "" {
		return nil, fmt.Errorf("AVATAR_API_URL must be set")
	}
	apiKey := os.Getenv("AVATAR_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("AVATAR_API_KEY must be set")
	}
	return &AvatarConfig{
		ApiUrl: apiUrl,
		ApiKey: apiKey,
	}, nil
}
