package logger

import "go.uber.org/fx"

// Module wires the zap logger for dependency injection.
var Module = fx.Provide(provide)
