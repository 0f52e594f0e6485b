package config

import (
	"fmt"
	"os"
)

type S3Config struct {
	BucketName string
	Region     string
	// FallbackDir receives uploads that could not reach S3.
	FallbackDir string
}

func GetS3Config() (*S3Config, error) {
	bucketName := os.Getenv("BUCKET_NAME")
	if bucketName == "" {
		return nil, fmt.Errorf("BUCKET_NAME must be set")
	}

	region := os.Getenv("REGION")
	if region == "" {
		return nil, fmt.Errorf("REGION must be set")
	}

	fallbackDir := os.Getenv("MEDIA_FALLBACK_DIR")
	if fallbackDir == "" {
		fallbackDir = os.TempDir()
	}

	return &S3Config{
		BucketName:  bucketName,
		Region:      region,
		FallbackDir: fallbackDir,
	}, nil
}
