package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	ProviderQiniu = "qiniu"
	ProviderS3    = "s3"
)

var (
	ErrConfigNotFound = errors.New("storage config file not found")
	ErrMissingKeys    = errors.New("missing required config keys")
)

// StorageConfig holds the object storage credentials loaded from the TOML
// file named by QINIU_CONFIG_FILE. It is re-read on every publish and
// cleanup call; nothing is cached between calls.
type StorageConfig struct {
	Provider   string `toml:"provider"`
	AccessKey  string `toml:"access_key"`
	SecretKey  string `toml:"secret_key"`
	BucketName string `toml:"bucket_name"`
	Region     string `toml:"region"`
	UseHTTPS   bool   `toml:"use_https"`
}

var requiredStorageKeys = []string{"access_key", "secret_key", "bucket_name"}

func LoadStorage(path string) (StorageConfig, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return StorageConfig{}, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return StorageConfig{}, err
	}

	var cfg StorageConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return StorageConfig{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	missing := []string{}
	for _, key := range requiredStorageKeys {
		if !md.IsDefined(key) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return StorageConfig{}, fmt.Errorf("%w: %s", ErrMissingKeys, strings.Join(missing, ", "))
	}

	if cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.BucketName == "" {
		return StorageConfig{}, fmt.Errorf("invalid config in %s: credentials must not be empty", path)
	}

	if cfg.Provider == "" {
		cfg.Provider = ProviderQiniu
	}

	return cfg, nil
}
