//go:build !dev

package config

import "time"

// RefreshInterval returns how long remote feature flags are served before
// a request triggers a refresh check. Prod default: 30s.
// Override with FEATUREFLAGS_REFRESH_SECONDS.
func RefreshInterval() time.Duration {
	if d, ok := seconds("FEATUREFLAGS_REFRESH_SECONDS"); ok {
		return d
	}
	return 30 * time.Second
}
