package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/James-Wolfley/smart-feature-flags/config"
	"github.com/James-Wolfley/smart-feature-flags/configuration"
)

// Source is a configuration source backed by a remote feature flag store.
// The connection string is read from the sources added before it.
type Source struct {
	key      string
	label    string
	newStore StoreFactory
	interval time.Duration
	timeout  time.Duration
	metrics  *Metrics
	now      func() time.Time
}

var _ configuration.Source = (*Source)(nil)

// ErrInitialLoad matches a build that failed because the store could not be
// read during the first load, although the connection string was valid.
var ErrInitialLoad = errors.New("initial feature flag load failed")

// LoadError is returned by Source.Provider when the first load fails.
// errors.Is matches both ErrInitialLoad and the underlying cause.
type LoadError struct {
	Endpoint string
	Label    string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%v from %s (label %q): %v", ErrInitialLoad, e.Endpoint, e.Label, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool { return target == ErrInitialLoad }

type Option func(*Source)

// WithLabel selects the flags carrying label. Default: no label.
func WithLabel(label string) Option {
	return func(s *Source) { s.label = label }
}

// WithStoreFactory replaces the Azure App Configuration store.
func WithStoreFactory(f StoreFactory) Option {
	return func(s *Source) { s.newStore = f }
}

func WithRefreshInterval(d time.Duration) Option {
	return func(s *Source) { s.interval = d }
}

// WithLoadTimeout bounds each fetch, including the initial one.
func WithLoadTimeout(d time.Duration) Option {
	return func(s *Source) { s.timeout = d }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Source) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Source) { s.now = now }
}

// NewSource returns a source reading its connection string from key.
func NewSource(key string, opts ...Option) *Source {
	s := &Source{
		key:      key,
		newStore: NewAzureStore,
		interval: config.RefreshInterval(),
		timeout:  config.LoadTimeout(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Source) Key() string   { return s.key }
func (s *Source) Label() string { return s.label }

// Provider validates the connection string, opens the store and loads the
// flags once. An invalid connection string or a failed first load fails the build.
func (s *Source) Provider(prior configuration.Reader) (configuration.Provider, error) {
	cs, err := ParseConnectionString(prior.String(s.key))
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", s.key)
	}
	store, err := s.newStore(cs)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		store:    store,
		label:    s.label,
		interval: s.interval,
		timeout:  s.timeout,
		metrics:  s.metrics,
		now:      s.now,
		logger: log.WithFields(log.Fields{
			"component": "remote",
			"endpoint":  cs.Endpoint,
			"label":     s.label,
		}),
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := p.Refresh(ctx); err != nil {
		return nil, &LoadError{Endpoint: cs.Endpoint, Label: s.label, Err: err}
	}
	return p, nil
}
