package configuration

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

// SourceFunc adapts a function to Source.
type SourceFunc func(prior Reader) (Provider, error)

func (f SourceFunc) Provider(prior Reader) (Provider, error) { return f(prior) }

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(k *koanf.Koanf) error

func (f ProviderFunc) Load(k *koanf.Koanf) error { return f(k) }

func static(p koanf.Provider, parser koanf.Parser) Source {
	return SourceFunc(func(Reader) (Provider, error) {
		return ProviderFunc(func(k *koanf.Koanf) error {
			return k.Load(p, parser)
		}), nil
	})
}

// JSON loads a JSON document held in memory.
func JSON(b []byte) Source {
	return static(rawbytes.Provider(b), json.Parser())
}

// Map loads a map. Keys may be nested maps or ':' joined paths.
func Map(m map[string]interface{}) Source {
	return static(confmap.Provider(m, Delimiter), nil)
}

// Env loads environment variables starting with prefix. The prefix is
// stripped and "__" maps to the key delimiter, so
// SMARTFLAGS_Azure__FeatureFlags__ConnectionString becomes
// Azure:FeatureFlags:ConnectionString.
func Env(prefix string) Source {
	return static(env.Provider(prefix, Delimiter, func(s string) string {
		return strings.ReplaceAll(strings.TrimPrefix(s, prefix), "__", Delimiter)
	}), nil)
}

// File loads a .json, .yaml or .yml file. An optional file that does not
// exist loads nothing; a required one fails the build.
func File(path string, optional bool) Source {
	return SourceFunc(func(Reader) (Provider, error) {
		parser, err := parserFor(path)
		if err != nil {
			return nil, err
		}
		return ProviderFunc(func(k *koanf.Koanf) error {
			if _, err := os.Stat(path); optional && errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return errors.Wrapf(k.Load(file.Provider(path), parser), "load %s", path)
		}), nil
	})
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return json.Parser(), nil
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	default:
		return nil, errors.Errorf("unsupported configuration file type %q", path)
	}
}
