package config

import (
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

type Settings struct {
	Domain            string `envconfig:"cert_domain"`
	Email             string `envconfig:"cert_email"`
	InProd            string `envconfig:"cert_in_prod"`
	StorageConfigFile string `envconfig:"qiniu_config_file" default:"qiniu_config.toml"`
	WebrootPath       string `envconfig:"cert_webroot_path" default:"/tmp/acme_challenge/.well-known/acme-challenge"`
	CertbotRoot       string `envconfig:"certbot_dir_root" default:".cache"`
	CertbotBin        string `envconfig:"certbot_bin" default:"certbot"`
	Schedule          string `envconfig:"renew_schedule" default:"0 0 0 * * *"`
}

func NewSettings() (Settings, error) {
	var settings Settings
	err := envconfig.Process("", &settings)
	if err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// Staging reports whether certbot should talk to the Let's Encrypt staging
// endpoint. Only CERT_IN_PROD=1 selects production.
func (s Settings) Staging() bool {
	return s.InProd != "1"
}

func (s Settings) CertbotLogDir() string {
	return filepath.Join(s.CertbotRoot, "log")
}

func (s Settings) CertbotWorkDir() string {
	return filepath.Join(s.CertbotRoot, "work")
}

func (s Settings) CertbotConfigDir() string {
	return filepath.Join(s.CertbotRoot, "config")
}
