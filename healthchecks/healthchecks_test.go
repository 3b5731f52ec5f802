package healthchecks_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/18F/cdn-cert-renewer/config"
	"github.com/18F/cdn-cert-renewer/healthchecks"
)

func TestCertbot(t *testing.T) {
	// Any binary guaranteed on PATH stands in for certbot here.
	err := healthchecks.Certbot(config.Settings{CertbotBin: "sh"})
	assert.NoError(t, err)
}

func TestCertbotMissing(t *testing.T) {
	err := healthchecks.Certbot(config.Settings{CertbotBin: "no-such-binary-on-this-host"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestStorageMissingConfig(t *testing.T) {
	settings := config.Settings{
		StorageConfigFile: filepath.Join(t.TempDir(), "nope.toml"),
	}
	err := healthchecks.Storage(settings)
	assert.ErrorIs(t, err, config.ErrConfigNotFound)
}

func TestRunAll(t *testing.T) {
	settings := config.Settings{
		CertbotBin:        "sh",
		StorageConfigFile: filepath.Join(t.TempDir(), "nope.toml"),
	}

	results := healthchecks.RunAll(settings)
	require.Len(t, results, 2)
	assert.NoError(t, results["certbot"])
	assert.Error(t, results["storage"])
}
