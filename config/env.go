package config

import (
	"os"
	"strconv"
	"time"
)

// seconds reads a non-negative number of seconds from the named env var.
// ok=false when the var is unset or unparsable.
func seconds(name string) (time.Duration, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return time.Duration(n) * time.Second, true
}
