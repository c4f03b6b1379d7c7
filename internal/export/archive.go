package export

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/gatepass/gatepass/internal/models"
	"github.com/gatepass/gatepass/internal/netx"
)

// ArchiveConfig locates the bucket. BaseEndpoint targets MinIO and other
// S3-compatible stores; empty means AWS.
type ArchiveConfig struct {
	Bucket       string
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
}

type presigner interface {
	PresignPutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Archiver uploads export files through presigned PUT URLs.
type Archiver struct {
	presign presigner
	bucket  string
	client  *http.Client
}

func NewArchiver(ctx context.Context, cfg ArchiveConfig) (*Archiver, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: archive bucket is not configured", models.ErrValidation)
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})
	return &Archiver{
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		client:  &http.Client{Timeout: time.Minute},
	}, nil
}

// ArchiveKey is the object key of an export file.
func ArchiveKey(role models.Role, now time.Time) string {
	return fmt.Sprintf("exports/%d/%02d/%02d/%s-%s", now.Year(), now.Month(), now.Day(), uuid.NewString(), FileName(role, now))
}

// Upload stores body under key and returns the s3:// location.
func (a *Archiver) Upload(ctx context.Context, key string, body []byte) (string, error) {
	req, err := a.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		ContentType: aws.String("text/csv"),
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", fmt.Errorf("presign upload: %w", err)
	}
	if err := netx.UploadToPresignedURL(ctx, a.client, req.URL, "text/csv", body); err != nil {
		return "", fmt.Errorf("upload export: %w", err)
	}
	return fmt.Sprintf("s3://%s/%s", a.bucket, key), nil
}
