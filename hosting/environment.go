// Package hosting describes the environment a service runs in.
package hosting

import (
	"strings"

	"github.com/James-Wolfley/smart-feature-flags/config"
)

// Well-known environment names.
const (
	Development = "Development"
	Staging     = "Staging"
	Production  = "Production"
)

// Environment is supplied by the host. Components only ever consult
// IsDevelopment; Name is used as a label, never compared.
type Environment interface {
	Name() string
	IsDevelopment() bool
}

// HostEnvironment is the default Environment.
type HostEnvironment struct {
	name string
}

var _ Environment = HostEnvironment{}

func New(name string) HostEnvironment {
	return HostEnvironment{name: name}
}

// FromBuild returns the environment selected by the build tag and APP_ENVIRONMENT.
func FromBuild() HostEnvironment {
	return New(config.EnvironmentName())
}

func (e HostEnvironment) Name() string { return e.name }

// IsEnvironment reports whether the environment has the given name, ignoring case.
func (e HostEnvironment) IsEnvironment(name string) bool {
	return strings.EqualFold(e.name, name)
}

func (e HostEnvironment) IsDevelopment() bool { return e.IsEnvironment(Development) }

func (e HostEnvironment) IsProduction() bool { return e.IsEnvironment(Production) }

func (e HostEnvironment) String() string { return e.name }
