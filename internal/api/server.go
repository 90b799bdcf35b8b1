// Package api serves payroll risk assessments and monitoring data over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Veraticus/payroll-sentinel/internal/model"
	"github.com/Veraticus/payroll-sentinel/internal/monitor"
	"github.com/Veraticus/payroll-sentinel/internal/service"
)

// Store is the slice of storage the API reads and writes.
type Store interface {
	CreateCompany(ctx context.Context, company *model.Company) error
	GetCompany(ctx context.Context, id string) (*model.Company, error)
	ListCompanies(ctx context.Context, activeOnly bool) ([]model.Company, error)
	SavePayrollRun(ctx context.Context, run *model.PayrollRun) error
	GetPayrollRuns(ctx context.Context, companyID string, filter service.PayrollRunFilter) ([]model.PayrollRun, error)
	GetLatestAssessment(ctx context.Context, companyID string) (*model.AssessmentRecord, error)
	ListAlerts(ctx context.Context, companyID string, limit int) ([]model.AlertHistoryEntry, error)
}

// Checker runs a full company check.
type Checker interface {
	CheckCompany(ctx context.Context, companyID string) (*monitor.Result, error)
}

// Server is the HTTP API.
type Server struct {
	store            Store
	checker          Checker
	router           *gin.Engine
	logger           *slog.Logger
	clock            func() time.Time
	safetyMultiplier float64
}

// Option configures a Server.
type Option func(*Server)

// WithClock sets the clock used for ad hoc assessments.
func WithClock(clock func() time.Time) Option {
	return func(s *Server) {
		s.clock = clock
	}
}

// WithSafetyMultiplier sets the default multiplier for ad hoc assessments.
func WithSafetyMultiplier(m float64) Option {
	return func(s *Server) {
		s.safetyMultiplier = m
	}
}

// WithMetrics serves gatherer's metrics on /metrics.
func WithMetrics(gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
}

// NewServer creates the API. checker may be nil, in which case
// POST /v1/companies/:id/check answers 503.
func NewServer(store Store, checker Checker, opts ...Option) *Server {
	router := gin.New()
	s := &Server{
		store:   store,
		checker: checker,
		router:  router,
		logger:  slog.Default().With("component", "api"),
		clock:   time.Now,
	}

	router.Use(gin.Recovery(), s.requestLogger())
	s.routes()

	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) routes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/v1")
	{
		v1.POST("/assessments", s.handleAssess)

		companies := v1.Group("/companies")
		{
			companies.GET("", s.handleListCompanies)
			companies.POST("", s.handleCreateCompany)
			companies.GET("/:id", s.handleGetCompany)
			companies.POST("/:id/check", s.handleCheckCompany)
			companies.GET("/:id/assessments/latest", s.handleLatestAssessment)
			companies.GET("/:id/alerts", s.handleListAlerts)
			companies.GET("/:id/payroll-runs", s.handleListPayrollRuns)
			companies.POST("/:id/payroll-runs", s.handleCreatePayrollRun)
		}
	}
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api shutdown failed: %w", err)
	}
	s.logger.Info("API stopped")
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("Request handled",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
