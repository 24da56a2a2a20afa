package migration

import (
	"github.com/smallbiznis/settletrace/internal/snapshot/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Module creates the snapshot archive schema on startup so the service is
// usable out of the box on any supported dialect.
var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB) error {
		return conn.AutoMigrate(&domain.ArchiveRecord{})
	}),
)
