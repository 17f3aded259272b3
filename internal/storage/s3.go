package storage

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const presignExpiry = 15 * time.Minute

var (
	ErrNotConfigured = errors.New("object storage not configured")
	ErrContentType   = errors.New("content type must be an image")
)

// Upload is a presigned PUT the client performs directly against the bucket
type Upload struct {
	UploadURL string    `json:"uploadUrl"`
	PublicURL string    `json:"publicUrl"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Uploader issues presigned campaign cover uploads
type Uploader struct {
	presign    *s3.PresignClient
	bucket     string
	publicBase string
}

// NewUploader loads AWS credentials from the default chain. An empty bucket
// yields a nil uploader.
func NewUploader(ctx context.Context, region, bucket, publicBaseURL string) (*Uploader, error) {
	if bucket == "" {
		return nil, nil
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if publicBaseURL == "" {
		publicBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &Uploader{
		presign:    s3.NewPresignClient(s3.NewFromConfig(cfg)),
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

// CoverKey names the object for a project's campaign cover
func CoverKey(projectID, contentType string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return "", ErrContentType
	}
	ext := "." + strings.TrimPrefix(mediaType, "image/")
	if exts, _ := mime.ExtensionsByType(mediaType); len(exts) > 0 {
		ext = exts[0]
	}
	return fmt.Sprintf("campaigns/%s/%s%s", projectID, uuid.NewString(), ext), nil
}

func (u *Uploader) CoverUploadURL(ctx context.Context, projectID, contentType string) (*Upload, error) {
	if u == nil {
		return nil, ErrNotConfigured
	}
	key, err := CoverKey(projectID, contentType)
	if err != nil {
		return nil, err
	}
	req, err := u.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}
	return &Upload{
		UploadURL: req.URL,
		PublicURL: u.publicBase + "/" + key,
		Key:       key,
		ExpiresAt: time.Now().Add(presignExpiry),
	}, nil
}
