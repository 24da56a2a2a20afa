package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/settletrace/internal/audit"
	"github.com/smallbiznis/settletrace/internal/config"
	"github.com/smallbiznis/settletrace/internal/entity/store"
	ingestiondomain "github.com/smallbiznis/settletrace/internal/ingestion/domain"
	obsmetrics "github.com/smallbiznis/settletrace/internal/observability/metrics"
	snapshotdomain "github.com/smallbiznis/settletrace/internal/snapshot/domain"
	"github.com/smallbiznis/settletrace/internal/trace"
	"github.com/smallbiznis/settletrace/pkg/telemetry"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(telemetry.NewMetrics),
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

type Params struct {
	fx.In

	Log       *zap.Logger
	Store     *store.Store
	Ingest    ingestiondomain.Service
	Tracer    *trace.Engine
	Auditor   *audit.Auditor
	Snapshots snapshotdomain.Service
	Metrics   *obsmetrics.Metrics `optional:"true"`
}

type Server struct {
	log       *zap.Logger
	store     *store.Store
	ingestSvc ingestiondomain.Service
	tracer    *trace.Engine
	auditor   *audit.Auditor
	snapSvc   snapshotdomain.Service
	metrics   *obsmetrics.Metrics
}

func NewServer(p Params) *Server {
	return &Server{
		log:       p.Log.Named("http.server"),
		store:     p.Store,
		ingestSvc: p.Ingest,
		tracer:    p.Tracer,
		auditor:   p.Auditor,
		snapSvc:   p.Snapshots,
		metrics:   p.Metrics,
	}
}

func NewEngine(httpMetrics *telemetry.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(CorrelationMiddleware())
	r.Use(MetricsMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerRoutes(r *gin.Engine, s *Server) {
	v1 := r.Group("/v1")

	v1.POST("/orders", s.CreateOrder)
	v1.DELETE("/orders/:id", s.DeleteOrder)
	v1.POST("/payments", s.CreatePayment)
	v1.POST("/payments/:id/reassign", s.ReassignPayment)
	v1.POST("/enterprise-totals", s.CreateEnterpriseTotal)
	v1.POST("/total-amounts", s.CreateTotalAmount)

	v1.GET("/payments/:id/trace", s.TracePayment)
	v1.GET("/enterprise-totals/:id/trace", s.TraceEnterpriseTotal)
	v1.GET("/total-amounts/:id/trace", s.TraceTotalAmount)

	v1.POST("/audit/incomplete", s.AuditIncomplete)
	v1.POST("/audit/stats", s.AuditStats)
	v1.GET("/audit/summary", s.AuditSummary)

	v1.POST("/snapshots", s.ArchiveSnapshot)
	v1.GET("/snapshots/export", s.ExportSnapshot)
	v1.POST("/snapshots/import", s.ImportSnapshot)
	v1.POST("/snapshots/restore", s.RestoreLatestSnapshot)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
