//go:build !dev

package config

import "time"

// LoadTimeout bounds a single fetch of feature flags from the remote store.
// Prod default: 30s. Override with FEATUREFLAGS_LOAD_TIMEOUT_SECONDS (must be > 0).
func LoadTimeout() time.Duration {
	if d, ok := seconds("FEATUREFLAGS_LOAD_TIMEOUT_SECONDS"); ok && d > 0 {
		return d
	}
	return 30 * time.Second
}
