package storage

import (
	"fmt"

	"github.com/18F/cdn-cert-renewer/config"
)

// ObjectStore uploads and deletes objects in the bucket fronted by the CDN.
// Upload verifies the digest reported by the provider against a locally
// computed digest of the file before returning.
type ObjectStore interface {
	Upload(key, localPath string) error
	Delete(key string) error
}

func New(cfg config.StorageConfig) (ObjectStore, error) {
	switch cfg.Provider {
	case config.ProviderQiniu, "":
		return NewQiniuStore(cfg), nil
	case config.ProviderS3:
		return NewS3Store(cfg)
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}
