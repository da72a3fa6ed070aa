// Package features evaluates feature flags declared in the FeatureManagement
// configuration section. A flag is on or off; there are no filters.
//
//	{"FeatureManagement": {"Beta": true, "Search": "false"}}
package features

import (
	"sort"
	"strconv"
	"strings"

	"github.com/James-Wolfley/smart-feature-flags/configuration"
)

// Section is the configuration section holding feature definitions.
const Section = "FeatureManagement"

// Definition is one declared feature.
type Definition struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// DefinitionProvider looks up feature definitions.
type DefinitionProvider interface {
	GetFeatureDefinition(name string) (Definition, bool)
	GetAllFeatureDefinitions() []Definition
}

// ConfigurationDefinitionProvider reads definitions from a Configuration on
// every call, so a reload is visible immediately.
type ConfigurationDefinitionProvider struct {
	cfg *configuration.Configuration
}

var _ DefinitionProvider = (*ConfigurationDefinitionProvider)(nil)

func NewConfigurationDefinitionProvider(cfg *configuration.Configuration) *ConfigurationDefinitionProvider {
	return &ConfigurationDefinitionProvider{cfg: cfg}
}

// GetFeatureDefinition matches name case-insensitively. When several keys
// differ only in case, an exact match wins, then the smallest key.
func (p *ConfigurationDefinitionProvider) GetFeatureDefinition(name string) (Definition, bool) {
	section := p.section()
	if raw, ok := section[name]; ok {
		return Definition{Name: name, Enabled: enabled(raw)}, true
	}
	found := ""
	for key := range section {
		if strings.EqualFold(key, name) && (found == "" || key < found) {
			found = key
		}
	}
	if found == "" {
		return Definition{}, false
	}
	return Definition{Name: found, Enabled: enabled(section[found])}, true
}

// GetAllFeatureDefinitions returns every definition sorted by name.
func (p *ConfigurationDefinitionProvider) GetAllFeatureDefinitions() []Definition {
	section := p.section()
	out := make([]Definition, 0, len(section))
	for key, raw := range section {
		out = append(out, Definition{Name: key, Enabled: enabled(raw)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (p *ConfigurationDefinitionProvider) section() map[string]interface{} {
	if p.cfg == nil {
		return nil
	}
	return p.cfg.Section(Section)
}

// enabled accepts booleans and their string forms; anything else is off.
func enabled(raw interface{}) bool {
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && b
	default:
		return false
	}
}
