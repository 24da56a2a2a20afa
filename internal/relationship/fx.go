package relationship

import (
	"github.com/smallbiznis/settletrace/internal/entity/store"
	"go.uber.org/fx"
)

var Module = fx.Module("relationship.index",
	fx.Provide(func(s *store.Store) *Index {
		return New(s)
	}),
)
