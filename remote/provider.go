package remote

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/James-Wolfley/smart-feature-flags/configuration"
)

// FeatureManagementSection is the configuration section flags are projected into:
// flag "Beta" becomes FeatureManagement:Beta.
const FeatureManagementSection = "FeatureManagement"

// Refresher decides whether cached flags are stale and reloads them.
type Refresher interface {
	// TryRefresh refreshes when the refresh interval has elapsed and no other
	// refresh is running. It reports whether a refresh succeeded; failures are
	// logged, never returned.
	TryRefresh(ctx context.Context) bool
	// Refresh fetches unconditionally.
	Refresh(ctx context.Context) error
}

// Provider serves feature flags fetched from a Store as configuration.
type Provider struct {
	store    Store
	label    string
	interval time.Duration
	timeout  time.Duration
	metrics  *Metrics
	now      func() time.Time
	logger   *log.Entry

	inflight sync.Mutex

	mu     sync.RWMutex
	flags  map[string]bool
	hash   string
	loaded bool
	next   time.Time
	reload func() error
}

var (
	_ configuration.Provider = (*Provider)(nil)
	_ configuration.Watcher  = (*Provider)(nil)
	_ Refresher              = (*Provider)(nil)
)

func (p *Provider) Label() string { return p.label }

// Flags returns a copy of the flags last fetched.
func (p *Provider) Flags() map[string]bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]bool, len(p.flags))
	for id, on := range p.flags {
		out[id] = on
	}
	return out
}

// Load writes the cached flags; it never calls the store. A flag replaces
// any earlier key naming the same feature in a different case.
func (p *Provider) Load(k *koanf.Koanf) error {
	p.mu.RLock()
	values := make(map[string]interface{}, len(p.flags))
	ids := make(map[string]string, len(p.flags))
	for id, on := range p.flags {
		values[FeatureManagementSection+configuration.Delimiter+id] = on
		ids[strings.ToLower(id)] = id
	}
	p.mu.RUnlock()

	for _, key := range k.MapKeys(FeatureManagementSection) {
		if id, ok := ids[strings.ToLower(key)]; ok && id != key {
			k.Delete(FeatureManagementSection + configuration.Delimiter + key)
		}
	}
	return k.Load(confmap.Provider(values, configuration.Delimiter), nil)
}

func (p *Provider) Watch(reload func() error) {
	p.mu.Lock()
	p.reload = reload
	p.mu.Unlock()
}

func (p *Provider) TryRefresh(ctx context.Context) bool {
	if !p.due() {
		return false
	}
	if !p.inflight.TryLock() {
		return false
	}
	defer p.inflight.Unlock()
	// another caller may have refreshed while we waited for the check
	if !p.due() {
		return false
	}

	// a client hanging up must not abort the refresh it happened to trigger
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()
	if err := p.refresh(ctx); err != nil {
		p.logger.WithError(err).Warn("feature flag refresh failed")
		return false
	}
	return true
}

func (p *Provider) Refresh(ctx context.Context) error {
	p.inflight.Lock()
	defer p.inflight.Unlock()
	return p.refresh(ctx)
}

func (p *Provider) due() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return !p.now().Before(p.next)
}

// refresh must be called with inflight held.
func (p *Provider) refresh(ctx context.Context) error {
	start := time.Now()
	fetched, err := p.store.FeatureFlags(ctx, p.label)

	// the next attempt waits a full interval whatever happened, so a failing
	// store is not hit on every request
	p.mu.Lock()
	p.next = p.now().Add(p.interval)
	p.mu.Unlock()

	if err != nil {
		p.metrics.observe(resultFailed, time.Since(start))
		return errors.Wrapf(err, "fetch feature flags for label %q", p.label)
	}

	curr := make(map[string]bool, len(fetched))
	for _, f := range fetched {
		curr[f.ID] = f.Enabled
	}
	hash := flagsHash(curr)

	p.mu.Lock()
	if p.loaded && hash == p.hash {
		p.mu.Unlock()
		p.metrics.observe(resultUnchanged, time.Since(start))
		return nil
	}
	prev, first := p.flags, !p.loaded
	p.flags, p.hash, p.loaded = curr, hash, true
	reload := p.reload
	p.mu.Unlock()

	p.metrics.observe(resultUpdated, time.Since(start))
	p.metrics.setFlags(p.label, len(curr))

	if first {
		p.logger.WithField("flags", len(curr)).Info("feature flags loaded")
	} else if d := DiffFlags(prev, curr); !d.Empty() {
		p.logger.WithFields(log.Fields{
			"added":    d.Added,
			"removed":  d.Removed,
			"enabled":  d.Enabled,
			"disabled": d.Disabled,
		}).Info("feature flags changed")
	}

	if reload == nil {
		return nil
	}
	return errors.Wrap(reload(), "reload configuration")
}
