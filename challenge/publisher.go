package challenge

import (
	"os"
	"path"

	"code.cloudfoundry.org/lager/v3"

	"github.com/18F/cdn-cert-renewer/config"
	"github.com/18F/cdn-cert-renewer/storage"
)

// ObjectKey returns the bucket key for a challenge token. It must match what
// the HTTP front end serves at http://<domain>/.well-known/acme-challenge/<token>.
func ObjectKey(token string) string {
	return path.Join(".well-known", "acme-challenge", token)
}

// Publisher writes challenge validations to the object storage bucket and
// removes them after validation. Storage credentials are re-read from the
// config file on every call.
type Publisher struct {
	Logger   lager.Logger
	Settings config.Settings

	// NewStore builds the object store for a loaded config. Overridable in
	// tests; defaults to storage.New.
	NewStore func(config.StorageConfig) (storage.ObjectStore, error)
}

func NewPublisher(settings config.Settings, logger lager.Logger) *Publisher {
	return &Publisher{
		Logger:   logger,
		Settings: settings,
		NewStore: storage.New,
	}
}

func (p *Publisher) store() (storage.ObjectStore, error) {
	cfg, err := config.LoadStorage(p.Settings.StorageConfigFile)
	if err != nil {
		return nil, err
	}
	newStore := p.NewStore
	if newStore == nil {
		newStore = storage.New
	}
	return newStore(cfg)
}

// Publish uploads the validation string under the well-known key for token.
// All failures are logged and returned; none abort the caller.
func (p *Publisher) Publish(token, validation string) error {
	lsession := p.Logger.Session("publish", lager.Data{"token": token})

	store, err := p.store()
	if err != nil {
		lsession.Error("load-config", err)
		return err
	}

	tmp, err := os.CreateTemp("", "acme-challenge-")
	if err != nil {
		lsession.Error("temp-file", err)
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.WriteString(validation); err != nil {
		tmp.Close()
		lsession.Error("write-validation", err)
		return err
	}
	if err := tmp.Close(); err != nil {
		lsession.Error("write-validation", err)
		return err
	}

	key := ObjectKey(token)
	lsession.Info("upload", lager.Data{"key": key, "tmp-file": tmpPath})
	if err := store.Upload(key, tmpPath); err != nil {
		lsession.Error("upload", err, lager.Data{"key": key})
		return err
	}

	return nil
}

// Unpublish deletes the challenge object for token from the bucket.
func (p *Publisher) Unpublish(token string) error {
	lsession := p.Logger.Session("unpublish", lager.Data{"token": token})

	store, err := p.store()
	if err != nil {
		lsession.Error("load-config", err)
		return err
	}

	key := ObjectKey(token)
	if err := store.Delete(key); err != nil {
		lsession.Error("delete", err, lager.Data{"key": key})
		return err
	}

	lsession.Info("deleted", lager.Data{"key": key})
	return nil
}
