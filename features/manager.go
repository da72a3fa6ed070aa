package features

import (
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
	"go.uber.org/fx"
)

// Manager answers "is this feature on?".
type Manager struct {
	definitions DefinitionProvider
}

func NewManager(definitions DefinitionProvider) *Manager {
	return &Manager{definitions: definitions}
}

// IsEnabled reports whether name is declared and on. Undeclared features are off.
func (m *Manager) IsEnabled(name string) bool {
	d, ok := m.definitions.GetFeatureDefinition(name)
	return ok && d.Enabled
}

// Enabled returns the names of the features that are on, sorted.
func (m *Manager) Enabled() []string {
	var out []string
	for _, d := range m.definitions.GetAllFeatureDefinitions() {
		if d.Enabled {
			out = append(out, d.Name)
		}
	}
	return out
}

// Gate answers 404 unless every named feature is on.
func Gate(m *Manager, names ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			for _, name := range names {
				if !m.IsEnabled(name) {
					log.WithField("feature", name).Debug("request blocked by disabled feature")
					return echo.NewHTTPError(http.StatusNotFound)
				}
			}
			return next(c)
		}
	}
}

// Module registers the local feature management services.
// It needs a *configuration.Configuration.
var Module = fx.Module("features",
	fx.Provide(
		fx.Annotate(NewConfigurationDefinitionProvider, fx.As(new(DefinitionProvider))),
		NewManager,
	),
)
