//go:build !dev

package config

import "os"

// EnvironmentName returns the name of the environment the binary runs in.
// Prod default: "Production". Override with APP_ENVIRONMENT.
func EnvironmentName() string {
	if v := os.Getenv("APP_ENVIRONMENT"); v != "" {
		return v
	}
	return "Production"
}
