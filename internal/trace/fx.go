package trace

import "go.uber.org/fx"

var Module = fx.Module("trace.engine",
	fx.Provide(NewEngine),
)
