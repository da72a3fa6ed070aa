package remote

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// ErrMissingServices is returned when the refresh step is added to a pipeline
// without a RefresherProvider.
var ErrMissingServices = errors.New("Unable to find the required services. Please add all the required services by calling 'IServiceCollection.AddAzureAppConfiguration' inside the call to 'ConfigureServices(...)' in the application startup code.")

// RefreshMiddleware gives every refresher a chance to refresh before the
// request reaches the next handler.
func RefreshMiddleware(p *RefresherProvider) echo.MiddlewareFunc {
	refreshers := p.Refreshers()
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			for _, r := range refreshers {
				r.TryRefresh(ctx)
			}
			return next(c)
		}
	}
}

// UseRefresh adds RefreshMiddleware to e. It fails immediately when p is nil.
func UseRefresh(e *echo.Echo, p *RefresherProvider) error {
	if p == nil {
		return ErrMissingServices
	}
	e.Use(RefreshMiddleware(p))
	return nil
}
