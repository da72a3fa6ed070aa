//go:build dev

package config

import "time"

// Dev default: 5s so flag flips show up quickly. Override with FEATUREFLAGS_REFRESH_SECONDS.
func RefreshInterval() time.Duration {
	if d, ok := seconds("FEATUREFLAGS_REFRESH_SECONDS"); ok {
		return d
	}
	return 5 * time.Second
}
