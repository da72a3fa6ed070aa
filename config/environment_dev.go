//go:build dev

package config

import "os"

// Dev default: "Development", so the remote flag service is skipped.
// Still overrideable via APP_ENVIRONMENT.
func EnvironmentName() string {
	if v := os.Getenv("APP_ENVIRONMENT"); v != "" {
		return v
	}
	return "Development"
}
