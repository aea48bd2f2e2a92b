package config

import "go.uber.org/fx"

// Module provides *Config read from flags, the environment and .env.
// Commands that load configuration themselves replace it with fx.Replace.
var Module = fx.Options(fx.Provide(Load))
