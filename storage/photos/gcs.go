package photostore

import (
	"context"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"google.golang.org/api/option"

	"github.com/topsell/tams/core"
	"github.com/topsell/tams/core/asset"
)

type GCSStore struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

var _ asset.PhotoStore = (*GCSStore)(nil)

// NewGCSStore uses the credentials JSON from the config when set, application default credentials otherwise.
func NewGCSStore(ctx context.Context, conf *core.Config, opts ...option.ClientOption) (*GCSStore, error) {
	if creds := strings.TrimSpace(conf.Storage.CredentialsJSON); creds != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	}
	if conf.Storage.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(conf.Storage.Endpoint))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "creating GCS client")
	}

	baseURL := conf.Storage.PublicBaseURL
	if baseURL == "" {
		baseURL = "https://storage.googleapis.com/" + conf.Storage.Bucket
	}
	return &GCSStore{client: client, bucket: conf.Storage.Bucket, baseURL: baseURL}, nil
}

func (s *GCSStore) Put(ctx context.Context, objectPath, contentType string, data []byte) error {
	w := s.client.Bucket(s.bucket).Object(objectPath).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return errors.Wrap(err, "writing GCS object")
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "closing GCS object")
	}
	return nil
}

func (s *GCSStore) URL(objectPath string) string {
	return publicURL(s.baseURL, objectPath)
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
