// Package photostore keeps maintenance photos in object storage.
package photostore

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/topsell/tams/core"
	"github.com/topsell/tams/core/asset"
)

const (
	ProviderLocal = "local"
	ProviderGCS   = "gcs"
	ProviderS3    = "s3"
)

// New returns the photo store of the configured provider.
func New(ctx context.Context, conf *core.Config) (asset.PhotoStore, error) {
	switch conf.Storage.Provider {
	case ProviderLocal, "":
		return NewLocalStore(conf.Storage.LocalDir, conf.Storage.PublicBaseURL), nil
	case ProviderGCS:
		return NewGCSStore(ctx, conf)
	case ProviderS3:
		return NewS3Store(ctx, conf)
	default:
		return nil, errors.Errorf("unsupported storage provider %q", conf.Storage.Provider)
	}
}

// publicURL joins base and objectPath with a single slash.
func publicURL(base, objectPath string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(objectPath, "/")
}
