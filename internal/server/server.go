package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	accountdomain "github.com/smallbiznis/gstinvoice/internal/account/domain"
	authdomain "github.com/smallbiznis/gstinvoice/internal/auth/domain"
	"github.com/smallbiznis/gstinvoice/internal/auth/session"
	"github.com/smallbiznis/gstinvoice/internal/config"
	invoicedomain "github.com/smallbiznis/gstinvoice/internal/invoice/domain"
	"github.com/smallbiznis/gstinvoice/internal/observability"
	obslogger "github.com/smallbiznis/gstinvoice/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/gstinvoice/internal/observability/metrics"
	obstracing "github.com/smallbiznis/gstinvoice/internal/observability/tracing"
	productdomain "github.com/smallbiznis/gstinvoice/internal/product/domain"
	"github.com/smallbiznis/gstinvoice/internal/ratelimit"
	taxdomain "github.com/smallbiznis/gstinvoice/internal/tax/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(run),
)

// NewEngine builds the gin engine with the shared middleware chain.
func NewEngine(obsCfg observability.Config, traceCfg obstracing.MiddlewareConfig, httpMetrics *obsmetrics.HTTPMetrics, allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware(traceCfg))
	if httpMetrics != nil {
		r.Use(httpMetrics.GinMiddleware())
	}
	if len(allowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     allowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
			AllowHeaders:     []string{"Authorization", "Content-Type", obslogger.HeaderRequestID},
			ExposeHeaders:    []string{obslogger.HeaderRequestID, "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(cfg config.Config, obsCfg observability.Config, traceCfg obstracing.MiddlewareConfig, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, traceCfg, httpMetrics, cfg.CORSOrigins)
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, s *Server) {
	addr := strings.TrimSpace(cfg.HTTPAddr)
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	engine     *gin.Engine
	cfg        config.Config
	log        *zap.Logger
	authsvc    authdomain.Service
	sessions   *session.Manager
	accountSvc accountdomain.Service
	productSvc productdomain.Service
	invoiceSvc invoicedomain.Service
	taxSvc     taxdomain.Calculator
	guard      *ratelimit.Guard
	obsMetrics *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	Log        *zap.Logger
	Authsvc    authdomain.Service
	Sessions   *session.Manager
	AccountSvc accountdomain.Service
	ProductSvc productdomain.Service
	InvoiceSvc invoicedomain.Service
	TaxSvc     taxdomain.Calculator
	Guard      *ratelimit.Guard    `optional:"true"`
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

func NewServer(p ServerParams) (*Server, error) {
	if err := registerValidators(p.TaxSvc); err != nil {
		return nil, err
	}

	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		log:        p.Log.Named("http.server"),
		authsvc:    p.Authsvc,
		sessions:   p.Sessions,
		accountSvc: p.AccountSvc,
		productSvc: p.ProductSvc,
		invoiceSvc: p.InvoiceSvc,
		taxSvc:     p.TaxSvc,
		guard:      p.Guard,
		obsMetrics: p.ObsMetrics,
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc, nil
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/google", s.LoginRateLimit(), s.LoginWithGoogle)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.AuthRequired(), s.Me)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- GST calculator --------
	gst := api.Group("/gst")
	{
		gst.POST("/breakdown", s.CalculateGSTBreakdown)
		gst.POST("/reverse", s.ReverseCalculate)
		gst.GET("/validate", s.ValidateGSTNumber)
		gst.GET("/states", s.ListStates)
		gst.GET("/rates", s.ListRateSlabs)
	}

	api.Use(s.AuthRequired())

	// -------- Account --------
	api.GET("/account", s.GetAccount)
	api.PUT("/account", s.UpdateAccount)

	// -------- Products --------
	api.GET("/products", s.ListProducts)
	api.POST("/products", s.CreateProduct)
	api.GET("/products/low-stock", s.ListLowStockProducts)
	api.GET("/products/sku-exists", s.CheckSKU)
	api.GET("/products/:id", s.GetProductByID)
	api.PATCH("/products/:id", s.UpdateProduct)
	api.DELETE("/products/:id", s.DeleteProduct)
	api.POST("/products/:id/stock", s.UpdateProductStock)

	// -------- Invoices --------
	api.GET("/invoices", s.ListInvoices)
	api.POST("/invoices", s.CreateInvoice)
	api.GET("/invoices/next-number", s.NextInvoiceNumber)
	api.GET("/invoices/:id", s.GetInvoiceByID)
	api.PATCH("/invoices/:id", s.UpdateInvoice)
	api.DELETE("/invoices/:id", s.DeleteInvoice)
	api.POST("/invoices/:id/items", s.AddInvoiceItem)
	api.POST("/invoices/:id/recalculate", s.RecalculateInvoice)
	api.POST("/invoices/:id/pay", s.MarkInvoicePaid)
	api.GET("/invoices/:id/pdf", s.RenderInvoicePDF)
	api.GET("/invoices/:id/receipt", s.RenderInvoiceReceipt)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
