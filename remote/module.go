package remote

import "go.uber.org/fx"

// Module registers the refresher provider. It needs a *configuration.Configuration.
var Module = fx.Module("remote",
	fx.Provide(NewRefresherProvider),
)
