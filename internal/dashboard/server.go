// Package dashboard serves the food wastage insights page and its JSON API.
package dashboard

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"foodwaste/internal/food"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Options configures the dashboard server.
type Options struct {
	// AllowedOrigins enables CORS for the JSON API. Empty disables CORS.
	AllowedOrigins []string
}

// Server is the dashboard HTTP server.
type Server struct {
	router *gin.Engine
	svc    *food.FoodService
	logger *slog.Logger
}

// NewServer creates a dashboard over svc.
func NewServer(svc *food.FoodService, logger *slog.Logger, opts Options) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	if len(opts.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins: opts.AllowedOrigins,
			AllowMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
			MaxAge:       12 * time.Hour,
		}))
	}

	tmpl := template.Must(template.New("").Funcs(template.FuncMap{
		"cell": formatCell,
	}).ParseFS(templatesFS, "templates/*.html"))
	router.SetHTMLTemplate(tmpl)

	s := &Server{router: router, svc: svc, logger: logger}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/", s.index)
	s.router.POST("/providers", s.providerForm)

	api := s.router.Group("/api")
	{
		api.GET("/queries", s.listQueries)
		api.GET("/queries/:id", s.runQuery)
		api.GET("/contacts", s.contacts)
		api.GET("/summary", s.summary)
		api.POST("/providers", s.createProvider)
		api.PATCH("/providers/:id", s.updateProvider)
		api.DELETE("/providers/:id", s.deleteProvider)
	}
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dashboard listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serving dashboard: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down dashboard: %w", err)
	}
	s.logger.Info("dashboard stopped")
	return nil
}

// requestLogger logs one line per request through the application logger.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start).Truncate(time.Microsecond),
		)
	}
}

func formatCell(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case float64:
		return fmt.Sprintf("%.2f", v)
	case time.Time:
		return v.Format("2006-01-02 15:04")
	default:
		return fmt.Sprint(v)
	}
}
