package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Domenick1991/rideshare/api"
	"github.com/Domenick1991/rideshare/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

// NewRouter builds the HTTP surface. Everything domain-facing lives under /api.
func NewRouter(cfg *config.Config, logger *slog.Logger, app *App, checks map[string]HealthCheck) *gin.Engine {
	router := gin.New()
	router.Use(api.RequestID(), api.AccessLog(logger), api.Recovery(logger))
	if len(cfg.HTTP.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:  cfg.HTTP.AllowedOrigins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowHeaders:  []string{"Authorization", "Content-Type", "X-Request-ID"},
			ExposeHeaders: []string{"X-Request-ID"},
			MaxAge:        12 * time.Hour,
		}))
	}

	router.GET("/healthz", health(checks))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.HTTP.SwaggerFile != "" {
		router.StaticFile("/swagger/openapi.json", cfg.HTTP.SwaggerFile)
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/swagger/openapi.json"))))
	}

	root := router.Group("/api")
	public := root.Group("", api.OptionalAuth(app.Verifier))
	private := root.Group("", api.Authenticate(app.Verifier))

	api.NewRideHandler(app.Rides, app.Bookings).Register(public, private)
	api.NewBookingHandler(app.Bookings).Register(private)
	api.NewReviewHandler(app.Reviews).Register(public, private)
	api.NewNotificationHandler(app.Notifications).Register(private)
	api.NewUserHandler(app.Users).Register(public, private)

	return router
}

func health(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		report := gin.H{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				report[name] = err.Error()
				continue
			}
			report[name] = "ok"
		}
		c.JSON(status, gin.H{"status": http.StatusText(status), "checks": report})
	}
}

// Run serves HTTP and drives the notification dispatcher until ctx is
// cancelled, then drains both within the configured shutdown timeout.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger, app *App, checks map[string]HealthCheck) error {
	gin.SetMode(gin.ReleaseMode)

	srv := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      NewRouter(cfg, logger, app, checks),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	defer stopDispatch()
	go app.Dispatcher.Run(dispatchCtx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "address", cfg.HTTP.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case serveErr = <-errCh:
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		serveErr = errors.Join(serveErr, fmt.Errorf("shutdown http server: %w", err))
	}
	if err := app.Dispatcher.Close(shutdownCtx); err != nil {
		logger.Warn("notification queue not fully drained", "error", err)
	}
	if serveErr != nil {
		return fmt.Errorf("http server: %w", serveErr)
	}
	logger.Info("http server stopped")
	return nil
}
