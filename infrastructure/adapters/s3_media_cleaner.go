package adapters

import (
	"avatar-video-api/application/ports/outbound"
	"avatar-video-api/config"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

const maxDeleteBatch = 1000

type s3MediaCleaner struct {
	logger   outbound.LoggerPort
	s3Svc    s3iface.S3API
	s3Config *config.S3Config
}

func NewS3MediaCleaner(logger outbound.LoggerPort, s3Svc s3iface.S3API, s3Config *config.S3Config) outbound.MediaCleanerPort {
	return &s3MediaCleaner{
		logger:   logger,
		s3Svc:    s3Svc,
		s3Config: s3Config,
	}
}

// Delete removes the objects of the configured bucket and the local copies written to the
// fallback directory. Urls pointing elsewhere are skipped.
func (s *s3MediaCleaner) Delete(ctx context.Context, urls []string) error {
	var objects []*s3.ObjectIdentifier
	var errs []error
	for _, raw := range urls {
		if localPath, ok := s.localPath(raw); ok {
			if err := os.Remove(localPath); err != nil && !errors.Is(err, os.ErrNotExist) {
				s.logger.Error(err, "Failed to remove local media copy")
				errs = append(errs, err)
			}
			continue
		}
		key, ok := s.objectKey(raw)
		if !ok {
			s.logger.WarnWithFields("Skipping url outside of the media bucket", map[string]interface{}{
				"url": raw,
			})
			continue
		}
		objects = append(objects, &s3.ObjectIdentifier{Key: aws.String(key)})
	}

	for start := 0; start < len(objects); start += maxDeleteBatch {
		end := start + maxDeleteBatch
		if end > len(objects) {
			end = len(objects)
		}
		out, err := s.s3Svc.DeleteObjectsWithContext(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.s3Config.BucketName),
			Delete: &s3.Delete{
				Objects: objects[start:end],
				Quiet:   aws.Bool(true),
			},
		})
		if err != nil {
			s.logger.Error(err, "Failed to delete objects from S3")
			errs = append(errs, err)
			continue
		}
		for _, e := range out.Errors {
			errs = append(errs, fmt.Errorf("delete %s: %s", aws.StringValue(e.Key), aws.StringValue(e.Message)))
		}
	}

	return errors.Join(errs...)
}

func (s *s3MediaCleaner) localPath(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "file" || s.s3Config.FallbackDir == "" {
		return "", false
	}
	localPath := filepath.Clean(filepath.FromSlash(u.Path))
	rel, err := filepath.Rel(filepath.Clean(s.s3Config.FallbackDir), localPath)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return localPath, true
}

func (s *s3MediaCleaner) objectKey(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "https" {
		return "", false
	}
	bucket := s.s3Config.BucketName
	if u.Host != bucket+".s3.amazonaws.com" && u.Host != fmt.Sprintf("%s.s3.%s.amazonaws.com", bucket, s.s3Config.Region) {
		return "", false
	}
	key := strings.TrimPrefix(u.Path, "/")
	return key, key != ""
}
