package adapters

import (
	"avatar-video-api/application/ports/outbound"
	"avatar-video-api/config"
	"avatar-video-api/domain"
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/google/uuid"
)

type s3MediaUploader struct {
	logger   outbound.LoggerPort
	s3Svc    s3iface.S3API
	s3Config *config.S3Config
}

func NewS3MediaUploader(s3Svc s3iface.S3API, s3Config *config.S3Config, logger outbound.LoggerPort) outbound.MediaUploaderPort {
	return &s3MediaUploader{
		logger:   logger,
		s3Svc:    s3Svc,
		s3Config: s3Config,
	}
}

// Upload stores the media in S3. When S3 rejects it, the bytes are kept in a local file and an
// ephemeral file:// reference is returned instead of an error.
func (s *s3MediaUploader) Upload(ctx context.Context, media outbound.MediaUpload) (domain.UploadedMedia, error) {
	itemPath := s.getS3ItemPath(media)

	putInput := &s3.PutObjectInput{
		Bucket:        aws.String(s.s3Config.BucketName),
		Key:           aws.String(itemPath),
		Body:          bytes.NewReader(media.Content),
		ContentLength: aws.Int64(int64(len(media.Content))),
	}
	if media.ContentType != "" {
		putInput.ContentType = aws.String(media.ContentType)
	}

	_, err := s.s3Svc.PutObjectWithContext(ctx, putInput)
	if err != nil {
		s.logger.ErrorWithFields(err, "Failed to upload object to S3, keeping a local copy", map[string]interface{}{
			"bucket": s.s3Config.BucketName,
			"key":    itemPath,
		})
		return s.storeLocally(media)
	}

	s3Url := S3ObjectURL(s.s3Config.BucketName, itemPath)
	s.logger.DebugWithFields("Successfully uploaded object to S3", map[string]interface{}{
		"s3Url": s3Url,
	})

	return domain.UploadedMedia{URL: s3Url}, nil
}

func (s *s3MediaUploader) storeLocally(media outbound.MediaUpload) (domain.UploadedMedia, error) {
	name := fmt.Sprintf("%s-%s-%s", media.JobID, uuid.NewString(), safeFileName(media.FileName))
	localPath := filepath.Join(s.s3Config.FallbackDir, name)
	if err := os.WriteFile(localPath, media.Content, 0o600); err != nil {
		s.logger.Error(err, "Failed to write local media copy")
		return domain.UploadedMedia{}, domain.NewStageError(domain.UploadingMediaStage, err)
	}
	return domain.UploadedMedia{
		URL:       (&url.URL{Scheme: "file", Path: filepath.ToSlash(localPath)}).String(),
		Ephemeral: true,
	}, nil
}

func (s *s3MediaUploader) getS3ItemPath(media outbound.MediaUpload) string {
	userID := media.UserID
	if userID == "" {
		userID = "anonymous"
	}
	return fmt.Sprintf("user/%s/jobs/%s/%s/%s-%s", userID, media.JobID, media.Kind, uuid.NewString(), safeFileName(media.FileName))
}

// S3ObjectURL is the virtual-hosted style URL of an object.
func S3ObjectURL(bucket, key string) string {
	return (&url.URL{Scheme: "https", Host: bucket + ".s3.amazonaws.com", Path: "/" + key}).String()
}

func safeFileName(name string) string {
	name = path.Base(filepath.ToSlash(name))
	if name == "." || name == "/" || name == "" {
		return "media"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
