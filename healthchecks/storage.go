package healthchecks

import (
	"os"

	"github.com/18F/cdn-cert-renewer/config"
	"github.com/18F/cdn-cert-renewer/storage"
)

// Storage verifies the configured bucket accepts uploads and deletes by
// round-tripping a probe object.
func Storage(settings config.Settings) error {
	cfg, err := config.LoadStorage(settings.StorageConfigFile)
	if err != nil {
		return err
	}

	store, err := storage.New(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp("", "healthcheck-")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString("cheese"); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	key := "healthcheck-test-key"
	if err := store.Upload(key, tmp.Name()); err != nil {
		return err
	}
	return store.Delete(key)
}
