package remote

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// FeatureFlagPrefix is the key prefix App Configuration uses for feature flags.
const FeatureFlagPrefix = ".appconfig.featureflag/"

// Flag is one feature flag as served by the store.
type Flag struct {
	ID      string
	Enabled bool
	Label   string
}

// Store lists the feature flags carrying a label.
type Store interface {
	FeatureFlags(ctx context.Context, label string) ([]Flag, error)
}

// StoreFactory opens a Store for a validated connection string.
type StoreFactory func(cs ConnectionString) (Store, error)

// StoreFunc adapts a function to Store.
type StoreFunc func(ctx context.Context, label string) ([]Flag, error)

func (f StoreFunc) FeatureFlags(ctx context.Context, label string) ([]Flag, error) {
	return f(ctx, label)
}

// flagValue is the subset of the App Configuration feature flag document we use.
// Client filters are ignored: a flag is either on or off.
type flagValue struct {
	ID      string `json:"id"`
	Enabled bool   `json:"enabled"`
}

// parseFlag decodes a feature flag setting. The id falls back to the key suffix.
func parseFlag(key, value string) (Flag, error) {
	var v flagValue
	if err := json.Unmarshal([]byte(value), &v); err != nil {
		return Flag{}, errors.Wrapf(err, "decode feature flag %s", key)
	}
	id := v.ID
	if id == "" {
		id = strings.TrimPrefix(key, FeatureFlagPrefix)
	}
	if id == "" {
		return Flag{}, errors.Errorf("feature flag %s has no id", key)
	}
	return Flag{ID: id, Enabled: v.Enabled}, nil
}
