package audit

import "go.uber.org/fx"

var Module = fx.Module("audit.auditor",
	fx.Provide(NewAuditor),
)
