package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

type ServerConfig struct {
	Port           string
	LogLevel       string
	JwksURL        string
	AllowedOrigins []string
	SubmitRPS      float64
	SubmitBurst    int
	WatchInterval  time.Duration
	OtlpEndpoint   string
}

func GetServerConfig() (*ServerConfig, error) {
	cfg := &ServerConfig{
		Port:          "8080",
		LogLevel:      "info",
		SubmitRPS:     1,
		SubmitBurst:   5,
		WatchInterval: time.Second,
		JwksURL:       os.Getenv("JWKS_URL"),
		OtlpEndpoint:  os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	if raw := os.Getenv("SUBMIT_RATE_LIMIT"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("invalid SUBMIT_RATE_LIMIT: %q", raw)
		}
		cfg.SubmitRPS = v
	}
	if raw := os.Getenv("SUBMIT_RATE_BURST"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("invalid SUBMIT_RATE_BURST: %q", raw)
		}
		cfg.SubmitBurst = v
	}
	if raw := os.Getenv("PROGRESS_WATCH_INTERVAL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid PROGRESS_WATCH_INTERVAL: %q", raw)
		}
		cfg.WatchInterval = d
	}

	return cfg, nil
}
