package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"autosales-dashboard/internal/config"
	"autosales-dashboard/internal/dataset"
	"autosales-dashboard/internal/handlers"
	"autosales-dashboard/internal/middleware"
	"autosales-dashboard/internal/observability"
	"autosales-dashboard/internal/scheduler"
	"autosales-dashboard/internal/server"
	"autosales-dashboard/internal/services"
	"autosales-dashboard/internal/ui/layout"
	"autosales-dashboard/internal/ui/static"
	"autosales-dashboard/internal/ui/templates"
)

const (
	renderTimeout = 10 * time.Second
	cacheMaxAge   = "public, max-age=300"
)

var rootCmd = &cobra.Command{
	Use:           "web",
	Short:         "Serve the automobile sales dashboard",
	Long:          `Loads the historical automobile sales dataset once and serves the recession and yearly report dashboard.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), handlers.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(reportCmd)
}

// newDashboardHandler renders the page for l. The initial signals never
// change, so they are encoded once.
func newDashboardHandler(l layout.Layout) (http.HandlerFunc, error) {
	signals, err := handlers.InitialSignals(l)
	if err != nil {
		return nil, err
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", cacheMaxAge)
		if err := templates.Dashboard(l, signals).Render(ctx, w); err != nil {
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}, nil
}

// loadAnalytics reads the configured dataset. Any failure is fatal for the
// caller; the dashboard never serves without data.
func loadAnalytics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*services.Analytics, error) {
	src, err := dataset.NewSource(cfg.Dataset.Source, dataset.SourceOptions{
		Table: cfg.Dataset.Table,
		Parse: dataset.ParseOptions{
			Strict: cfg.Dataset.Strict,
			Logger: logger,
		},
		HTTPClient: &http.Client{Timeout: cfg.Dataset.LoadTimeout},
	})
	if err != nil {
		return nil, fmt.Errorf("configure dataset source: %w", err)
	}

	analytics := services.NewAnalytics()
	analytics.SetLogger(logger)

	ctx, cancel := context.WithTimeout(ctx, cfg.Dataset.LoadTimeout)
	defer cancel()

	if err := analytics.Load(ctx, src); err != nil {
		return nil, err
	}
	return analytics, nil
}

// buildHandler wires routes and the middleware chain.
func buildHandler(cfg *config.Config, analytics *services.Analytics, l layout.Layout, rateLimiter *middleware.RateLimiter, logger *slog.Logger) (http.Handler, error) {
	dashboard, err := newDashboardHandler(l)
	if err != nil {
		return nil, err
	}

	templateHandlers := &server.TemplateHandlers{
		Dashboard: dashboard,
		Static:    static.Files,
	}

	srv := server.NewServer(analytics, l, logger, templateHandlers)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger, "/static/", "/health"),
	)

	return middlewareChain.Then(srv), nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", handlers.Version,
		"addr", cfg.Address(),
		"dataset", cfg.Dataset.Source,
	)

	ctx, stop := server.SignalContext(cmd.Context())
	defer stop()

	analytics, err := loadAnalytics(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to load dataset", "error", err)
		return err
	}

	l := layout.Default()
	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	handler, err := buildHandler(cfg, analytics, l, rateLimiter, logger)
	if err != nil {
		return err
	}

	maintenance := scheduler.NewMaintenance(rateLimiter, scheduler.MaintenanceConfig{
		Interval: cfg.Maintenance.SweepInterval,
		MaxIdle:  cfg.Maintenance.LimiterIdle,
	}, logger)
	if err := maintenance.Start(ctx); err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)
	gracefulServer.RegisterShutdownHook(maintenance.Shutdown)

	if err := gracefulServer.ListenAndServe(ctx); err != nil {
		logger.Error("server failed", "error", err)
		return err
	}

	logger.Info("application stopped gracefully")
	return nil
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
