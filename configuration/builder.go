package configuration

import (
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

// Source produces a Provider. prior exposes everything loaded by the sources
// added before this one, so a source can read its own settings (a connection
// string, say) without a second build.
type Source interface {
	Provider(prior Reader) (Provider, error)
}

// Builder accumulates sources. It is not safe for concurrent use.
type Builder struct {
	sources []Source
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Add appends s and returns the builder for chaining.
func (b *Builder) Add(s Source) *Builder {
	b.sources = append(b.sources, s)
	return b
}

// Sources returns a copy of the sources added so far.
func (b *Builder) Sources() []Source {
	out := make([]Source, len(b.sources))
	copy(out, b.sources)
	return out
}

// Build runs every source in order. Errors from a source are returned
// wrapped with its position; errors.Is still matches the original.
func (b *Builder) Build() (*Configuration, error) {
	k := koanf.New(Delimiter)
	providers := make([]Provider, 0, len(b.sources))
	for i, s := range b.sources {
		p, err := s.Provider(treeReader{k: k})
		if err != nil {
			return nil, errors.Wrapf(err, "configuration source #%d", i)
		}
		if err := p.Load(k); err != nil {
			return nil, wrapProvider(err, i)
		}
		providers = append(providers, p)
	}

	c := &Configuration{k: k, providers: providers}
	for _, p := range providers {
		if w, ok := p.(Watcher); ok {
			w.Watch(c.Reload)
		}
	}
	return c, nil
}

func wrapProvider(err error, i int) error {
	return errors.Wrapf(err, "configuration provider #%d", i)
}
