package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/settletrace/internal/audit"
	"github.com/smallbiznis/settletrace/internal/clock"
	"github.com/smallbiznis/settletrace/internal/config"
	"github.com/smallbiznis/settletrace/internal/entity/store"
	"github.com/smallbiznis/settletrace/internal/idgen"
	"github.com/smallbiznis/settletrace/internal/ingestion"
	"github.com/smallbiznis/settletrace/internal/logger"
	"github.com/smallbiznis/settletrace/internal/migration"
	"github.com/smallbiznis/settletrace/internal/observability"
	"github.com/smallbiznis/settletrace/internal/relationship"
	"github.com/smallbiznis/settletrace/internal/server"
	"github.com/smallbiznis/settletrace/internal/snapshot"
	"github.com/smallbiznis/settletrace/internal/trace"
	"github.com/smallbiznis/settletrace/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,
		idgen.Module,

		// Functional domains
		store.Module,
		relationship.Module,
		trace.Module,
		audit.Module,
		ingestion.Module,
		snapshot.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
