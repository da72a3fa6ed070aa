package remote

import (
	"github.com/pkg/errors"

	"github.com/James-Wolfley/smart-feature-flags/configuration"
)

// ErrProviderNotConfigured is returned when a RefresherProvider is resolved
// against a configuration that holds no remote provider.
var ErrProviderNotConfigured = errors.New("Unable to access the Azure App Configuration provider. Please ensure that it has been configured correctly.")

// RefresherProvider exposes the refreshers of every remote provider in a configuration.
type RefresherProvider struct {
	refreshers []Refresher
}

// NewRefresherProvider fails with ErrProviderNotConfigured unless cfg was built
// with at least one remote Source. The failure happens here, at resolution,
// not when services are registered.
func NewRefresherProvider(cfg *configuration.Configuration) (*RefresherProvider, error) {
	if cfg == nil {
		return nil, ErrProviderNotConfigured
	}
	var refreshers []Refresher
	for _, p := range cfg.Providers() {
		if r, ok := p.(Refresher); ok {
			refreshers = append(refreshers, r)
		}
	}
	if len(refreshers) == 0 {
		return nil, ErrProviderNotConfigured
	}
	return &RefresherProvider{refreshers: refreshers}, nil
}

func (p *RefresherProvider) Refreshers() []Refresher {
	out := make([]Refresher, len(p.refreshers))
	copy(out, p.refreshers)
	return out
}
