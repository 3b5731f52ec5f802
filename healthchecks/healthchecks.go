package healthchecks

import (
	"github.com/18F/cdn-cert-renewer/config"
)

var checks = map[string]func(config.Settings) error{
	"storage": Storage,
	"certbot": Certbot,
}

// RunAll runs every check and returns the per-check outcome, nil meaning
// healthy.
func RunAll(settings config.Settings) map[string]error {
	results := map[string]error{}
	for name, check := range checks {
		results[name] = check(settings)
	}
	return results
}
