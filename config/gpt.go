package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	defaultGptModel       = "gpt-4o-mini"
	defaultGptTemperature = 0.7
)

// GptConfig points at an OpenAI compatible chat completions endpoint that supports streaming.
type GptConfig struct {
	ApiUrl      string
	ApiKey      string
	Model       string
	Temperature float64
	// MaxTokens of 0 leaves the limit to the provider.
	MaxTokens int
}

func GetGptConfig() (*GptConfig, error) {
	apiUrl := os.Getenv("GPT_API_URL")
	if apiUrl == "" {
		return nil, fmt.Errorf("GPT_API_URL must be set")
	}
	apiKey := os.Getenv("GPT_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GPT_API_KEY must be set")
	}

	conf := &GptConfig{
		ApiUrl:      apiUrl,
		ApiKey:      apiKey,
		Model:       os.Getenv("GPT_MODEL"),
		Temperature: defaultGptTemperature,
	}
	if conf.Model == "" {
		conf.Model = defaultGptModel
	}

	if raw := os.Getenv("GPT_TEMPERATURE"); raw != "" {
		temperature, err := strconv.ParseFloat(raw, 64)
		if err != nil || temperature < 0 || temperature > 2 {
			return nil, fmt.Errorf("invalid GPT_TEMPERATURE: %q", raw)
		}
		conf.Temperature = temperature
	}
	if raw := os.Getenv("GPT_MAX_TOKENS"); raw != "" {
		maxTokens, err := strconv.Atoi(raw)
		if err != nil || maxTokens < 0 {
			return nil, fmt.Errorf("invalid GPT_MAX_TOKENS: %q", raw)
		}
		conf.MaxTokens = maxTokens
	}

	return conf, nil
}
