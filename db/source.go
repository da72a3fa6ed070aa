package db

import (
	"context"
	"time"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"

	"github.com/James-Wolfley/smart-feature-flags/configuration"
)

const loadTimeout = 5 * time.Second

// NewSource returns a configuration source over the settings table.
// Rows for label override unlabeled rows with the same key. Every load
// (build or reload) queries the table again.
func NewSource(repo Repo, label string) configuration.Source {
	return configuration.SourceFunc(func(configuration.Reader) (configuration.Provider, error) {
		return configuration.ProviderFunc(func(k *koanf.Koanf) error {
			ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
			defer cancel()

			rows, err := repo.ListSettings(ctx, label)
			if err != nil {
				return errors.Wrap(err, "list settings")
			}
			values := make(map[string]interface{}, len(rows))
			for _, s := range rows {
				values[s.Key] = s.Value
			}
			return k.Load(confmap.Provider(values, configuration.Delimiter), nil)
		}), nil
	})
}
