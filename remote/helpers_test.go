package remote

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/James-Wolfley/smart-feature-flags/configuration"
)

const (
	connectionStringKey = "Azure:FeatureFlags:ConnectionString"
	testConnection      = "Endpoint=https://mock.azconfig.io;Id=gYiH-le-s0:Yi3EP8VGk0mKRXDpYri;Secret=NGIxZmZhMzctMTQ3MC00Njk2LThlYWEtOGFkODMwNGUzOTBl"
)

type fakeStore struct {
	mu     sync.Mutex
	flags  []Flag
	err    error
	calls  int
	labels []string

	// when set, FeatureFlags signals entered and waits on release
	entered chan struct{}
	release chan struct{}
}

func (s *fakeStore) FeatureFlags(ctx context.Context, label string) ([]Flag, error) {
	if s.entered != nil {
		s.entered <- struct{}{}
		<-s.release
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.labels = append(s.labels, label)
	if s.err != nil {
		return nil, s.err
	}
	return append([]Flag(nil), s.flags...), nil
}

func (s *fakeStore) set(err error, flags ...Flag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
	s.flags = flags
}

func (s *fakeStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	store   *fakeStore
	clock   *fakeClock
	metrics *Metrics
	cfg     *configuration.Configuration
	p       *Provider
}

func newFixture(t *testing.T, flags ...Flag) *fixture {
	t.Helper()
	f := &fixture{
		store:   &fakeStore{flags: flags},
		clock:   newFakeClock(),
		metrics: NewMetrics(prometheus.NewRegistry()),
	}
	src := NewSource(connectionStringKey,
		WithLabel("Production"),
		WithStoreFactory(func(ConnectionString) (Store, error) { return f.store, nil }),
		WithRefreshInterval(30*time.Second),
		WithLoadTimeout(time.Second),
		WithMetrics(f.metrics),
		WithClock(f.clock.now),
	)

	cfg, err := configuration.NewBuilder().
		Add(configuration.Map(map[string]interface{}{connectionStringKey: testConnection})).
		Add(src).
		Build()
	require.NoError(t, err)
	f.cfg = cfg

	providers := cfg.Providers()
	require.Len(t, providers, 2)
	p, ok := providers[1].(*Provider)
	require.True(t, ok)
	f.p = p
	return f
}
