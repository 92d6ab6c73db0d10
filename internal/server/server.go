package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/folio/internal/audit"
	auditdomain "github.com/smallbiznis/folio/internal/audit/domain"
	"github.com/smallbiznis/folio/internal/authorization"
	"github.com/smallbiznis/folio/internal/catalog"
	catalogdomain "github.com/smallbiznis/folio/internal/catalog/domain"
	"github.com/smallbiznis/folio/internal/config"
	obsmiddleware "github.com/smallbiznis/folio/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/folio/internal/observability/metrics"
	obstracing "github.com/smallbiznis/folio/internal/observability/tracing"
	"github.com/smallbiznis/folio/internal/payout"
	payoutdomain "github.com/smallbiznis/folio/internal/payout/domain"
	"github.com/smallbiznis/folio/internal/ratelimit"
	"github.com/smallbiznis/folio/internal/report"
	reportdomain "github.com/smallbiznis/folio/internal/report/domain"
	"github.com/smallbiznis/folio/internal/royalty"
	"github.com/smallbiznis/folio/internal/sale"
	saledomain "github.com/smallbiznis/folio/internal/sale/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	audit.Module,
	royalty.Module,
	catalog.Module,
	sale.Module,
	report.Module,
	payout.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(debug bool, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           debug,
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(cfg config.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := NewEngine(cfg.Debug(), httpMetrics)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(corsMiddleware(cfg.CORSAllowedOrigins))
	}
	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cc := cors.DefaultConfig()
	cc.AllowOrigins = origins
	cc.AllowHeaders = append(cc.AllowHeaders, "Authorization", HeaderActorRole, HeaderActorID)
	cc.ExposeHeaders = []string{"Content-Disposition", "Retry-After"}
	cc.MaxAge = 12 * time.Hour
	return cors.New(cc)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	addr := cfg.HTTPAddr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	genID         *snowflake.Node
	authzSvc      authorization.Service
	auditSvc      auditdomain.Service
	catalogSvc    catalogdomain.Service
	saleSvc       saledomain.Service
	reportSvc     reportdomain.Service
	payoutSvc     payoutdomain.Service
	exportLimiter *ratelimit.ExportLimiter
	obsMetrics    *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	GenID         *snowflake.Node
	AuthzSvc      authorization.Service
	AuditSvc      auditdomain.Service
	CatalogSvc    catalogdomain.Service
	SaleSvc       saledomain.Service
	ReportSvc     reportdomain.Service
	PayoutSvc     payoutdomain.Service
	ExportLimiter *ratelimit.ExportLimiter `optional:"true"`
	ObsMetrics    *obsmetrics.Metrics      `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		genID:         p.GenID,
		authzSvc:      p.AuthzSvc,
		auditSvc:      p.AuditSvc,
		catalogSvc:    p.CatalogSvc,
		saleSvc:       p.SaleSvc,
		reportSvc:     p.ReportSvc,
		payoutSvc:     p.PayoutSvc,
		exportLimiter: p.ExportLimiter,
		obsMetrics:    p.ObsMetrics,
	}

	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.ActorRequired())

	// -------- Catalog --------
	api.POST("/users", s.authorize(authorization.ObjectCatalog, authorization.ActionCatalogManage), s.CreateUser)
	api.GET("/users/:id", s.authorize(authorization.ObjectCatalog, authorization.ActionCatalogManage), s.GetUser)

	api.GET("/authors", s.authorize(authorization.ObjectCatalog, authorization.ActionCatalogView), s.ListAuthors)
	api.POST("/authors", s.authorize(authorization.ObjectCatalog, authorization.ActionCatalogManage), s.CreateAuthor)
	api.GET("/authors/:id", s.authorize(authorization.ObjectCatalog, authorization.ActionCatalogView), s.GetAuthor)

	api.GET("/publishers", s.authorize(authorization.ObjectCatalog, authorization.ActionCatalogView), s.ListPublishers)
	api.POST("/publishers", s.authorize(authorization.ObjectCatalog, authorization.ActionCatalogManage), s.CreatePublisher)
	api.GET("/publishers/:id", s.authorize(authorization.ObjectCatalog, authorization.ActionCatalogView), s.GetPublisher)

	api.GET("/books", s.authorize(authorization.ObjectCatalog, authorization.ActionCatalogView), s.ListBooks)
	api.POST("/books", s.authorize(authorization.ObjectCatalog, authorization.ActionCatalogManage), s.CreateBook)
	api.GET("/books/:id", s.authorize(authorization.ObjectCatalog, authorization.ActionCatalogView), s.GetBook)

	// -------- Sales --------
	api.POST("/sales", s.authorize(authorization.ObjectSale, authorization.ActionSaleRecord), s.RecordSale)
	api.GET("/sales/:id", s.authorize(authorization.ObjectSale, authorization.ActionSaleView), s.GetSale)
	api.POST("/orders/:id/sales", s.authorize(authorization.ObjectSale, authorization.ActionSaleRecord), s.RecordOrder)
	api.GET("/orders/:id/sales", s.authorize(authorization.ObjectSale, authorization.ActionSaleView), s.ListOrderSales)

	// -------- Reports --------
	reports := api.Group("/reports")
	{
		reports.GET("/sales", s.ListReportSales)
		reports.GET("/monthly", s.MonthlyReport)
		reports.GET("/dashboard", s.Dashboard)
		reports.GET("/export.csv", s.ExportRateLimit(), s.ExportCSV)
		reports.GET("/export.xlsx", s.ExportRateLimit(), s.ExportXLSX)
		reports.GET("/statement.pdf", s.ExportRateLimit(), s.StatementPDF)
	}

	// -------- Payouts --------
	api.POST("/payouts", s.authorize(authorization.ObjectPayout, authorization.ActionPayoutRequest), s.RequestPayout)
	api.GET("/payouts", s.ListPayouts)
	api.GET("/payouts/balance", s.PayoutBalance)
	api.GET("/payouts/:id", s.GetPayout)
	api.POST("/payouts/:id/approve", s.authorize(authorization.ObjectPayout, authorization.ActionPayoutProcess), s.ApprovePayout)
	api.POST("/payouts/:id/reject", s.authorize(authorization.ObjectPayout, authorization.ActionPayoutProcess), s.RejectPayout)
	api.POST("/payouts/:id/paid", s.authorize(authorization.ObjectPayout, authorization.ActionPayoutProcess), s.MarkPayoutPaid)

	// -------- Audit --------
	api.GET("/audit-logs", s.authorize(authorization.ObjectAuditLog, authorization.ActionAuditLogView), s.ListAuditLogs)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
