package idgen

import "go.uber.org/fx"

var Module = fx.Module("idgen",
	fx.Provide(NewRandom),
)
