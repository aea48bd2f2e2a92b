package router

import "go.uber.org/fx"

// Module provides the gin engine serving the API, webhook and metrics routes.
var Module = fx.Options(fx.Provide(Setup))
