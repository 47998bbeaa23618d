package storage

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"teahouse/internal/model"
)

type s3Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type s3Deleter interface {
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Host stores media in an S3 compatible bucket.
type S3Host struct {
	uploader  s3Uploader
	deleter   s3Deleter
	bucket    string
	publicURL string
}

type S3Options struct {
	Bucket    string
	Region    string
	Endpoint  string
	PublicURL string
}

func NewS3Host(ctx context.Context, opts S3Options) (*S3Host, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := strings.TrimSuffix(opts.PublicURL, "/")
	if publicURL == "" {
		if opts.Endpoint != "" {
			publicURL = strings.TrimSuffix(opts.Endpoint, "/") + "/" + opts.Bucket
		} else {
			publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, opts.Region)
		}
	}

	return &S3Host{
		uploader:  manager.NewUploader(client),
		deleter:   client,
		bucket:    opts.Bucket,
		publicURL: publicURL,
	}, nil
}

func (h *S3Host) Upload(ctx context.Context, localPath string, contentType string) (model.MediaRef, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return model.MediaRef{}, fmt.Errorf("open staged file: %w", err)
	}
	defer file.Close()

	key := newObjectKey("media", contentType)
	input := &s3.PutObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(key),
		Body:   file,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := h.uploader.Upload(ctx, input); err != nil {
		return model.MediaRef{}, fmt.Errorf("upload %q to s3: %w", key, err)
	}

	return model.MediaRef{URL: h.publicURL + "/" + key, PublicID: key}, nil
}

func (h *S3Host) Delete(ctx context.Context, publicID string) error {
	if strings.TrimSpace(publicID) == "" {
		return model.ErrMediaNotFound
	}

	_, err := h.deleter.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		return fmt.Errorf("delete %q from s3: %w", publicID, err)
	}

	return nil
}
