package healthchecks

import (
	"fmt"
	"os/exec"

	"github.com/18F/cdn-cert-renewer/config"
)

// Certbot verifies the external certbot binary is on the PATH.
func Certbot(settings config.Settings) error {
	if _, err := exec.LookPath(settings.CertbotBin); err != nil {
		return fmt.Errorf("certbot binary %q not found: %w", settings.CertbotBin, err)
	}
	return nil
}
