package photostore

import (
	"bytes"
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"

	"github.com/topsell/tams/core"
	"github.com/topsell/tams/core/asset"
)

type S3Store struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

var _ asset.PhotoStore = (*S3Store)(nil)

// NewS3Store loads the default AWS config. A custom endpoint (MinIO, LocalStack) switches to path-style addressing.
func NewS3Store(ctx context.Context, conf *core.Config, optFns ...func(*s3.Options)) (*S3Store, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(conf.Storage.Region))
	if err != nil {
		return nil, errors.Wrap(err, "loading AWS config")
	}

	endpoint := conf.Storage.Endpoint
	opts := append([]func(*s3.Options){func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	}}, optFns...)
	client := s3.NewFromConfig(awsCfg, opts...)

	baseURL := conf.Storage.PublicBaseURL
	if baseURL == "" {
		if endpoint != "" {
			baseURL = publicURL(endpoint, conf.Storage.Bucket)
		} else {
			baseURL = "https://" + conf.Storage.Bucket + ".s3." + conf.Storage.Region + ".amazonaws.com"
		}
	}
	return &S3Store{client: client, bucket: conf.Storage.Bucket, baseURL: baseURL}, nil
}

func (s *S3Store) Put(ctx context.Context, objectPath, contentType string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectPath),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return errors.Wrap(err, "putting S3 object")
	}
	return nil
}

func (s *S3Store) URL(objectPath string) string {
	return publicURL(s.baseURL, objectPath)
}
