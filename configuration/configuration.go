// Package configuration builds a hierarchical key/value configuration out of
// an ordered list of sources. Keys are ':' separated ("Azure:FeatureFlags:ConnectionString");
// later sources override earlier ones.
package configuration

import (
	"sync"

	"github.com/knadh/koanf/v2"
)

// Delimiter separates the levels of a configuration key.
const Delimiter = ":"

// Reader is the read-only view handed to a Source while the configuration is built.
type Reader interface {
	String(key string) string
	Exists(key string) bool
}

// Provider holds one slice of configuration and writes it into the tree.
// Load is called on every build and every reload, so it must be repeatable.
type Provider interface {
	Load(k *koanf.Koanf) error
}

// Watcher is implemented by providers whose data changes after Build.
// Build hands each one a callback that reloads the whole configuration.
type Watcher interface {
	Watch(reload func() error)
}

// Configuration is the built tree. Safe for concurrent use; Reload swaps
// the tree atomically so readers never see a half-loaded state.
type Configuration struct {
	mu        sync.RWMutex
	reloadMu  sync.Mutex
	k         *koanf.Koanf
	providers []Provider
}

func (c *Configuration) tree() *koanf.Koanf {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.k
}

// String returns the value at key, or "" when absent.
func (c *Configuration) String(key string) string { return c.tree().String(key) }

func (c *Configuration) Exists(key string) bool { return c.tree().Exists(key) }

// Bool accepts real booleans and their string forms ("true", "1", ...).
func (c *Configuration) Bool(key string) bool { return c.tree().Bool(key) }

// Section returns the nested map under path, or an empty map.
func (c *Configuration) Section(path string) map[string]interface{} {
	return c.tree().Cut(path).Raw()
}

// Keys returns every leaf key, sorted.
func (c *Configuration) Keys() []string { return c.tree().Keys() }

// Providers returns the providers in source order.
func (c *Configuration) Providers() []Provider {
	out := make([]Provider, len(c.providers))
	copy(out, c.providers)
	return out
}

// Reload re-runs every provider into a fresh tree and swaps it in.
// On error the current tree is kept.
func (c *Configuration) Reload() error {
	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	k := koanf.New(Delimiter)
	for i, p := range c.providers {
		if err := p.Load(k); err != nil {
			return wrapProvider(err, i)
		}
	}
	c.mu.Lock()
	c.k = k
	c.mu.Unlock()
	return nil
}

type treeReader struct{ k *koanf.Koanf }

func (r treeReader) String(key string) string { return r.k.String(key) }
func (r treeReader) Exists(key string) bool   { return r.k.Exists(key) }
