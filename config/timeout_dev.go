//go:build dev

package config

import "time"

func LoadTimeout() time.Duration {
	if d, ok := seconds("FEATUREFLAGS_LOAD_TIMEOUT_SECONDS"); ok && d > 0 {
		return d
	}
	// dev default: fail fast when the store is unreachable
	return 5 * time.Second
}
