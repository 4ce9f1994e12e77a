package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/marketlens/screener/internal/api"
	"github.com/marketlens/screener/internal/api/handlers"
	"github.com/marketlens/screener/internal/corpus"
	"github.com/marketlens/screener/internal/filterset"
	"github.com/marketlens/screener/internal/profile"
	"github.com/marketlens/screener/internal/scheduler"
	"github.com/marketlens/screener/internal/scheduler/jobs"
	"github.com/marketlens/screener/internal/screener"
	"github.com/marketlens/screener/internal/screenerconfig"
	"github.com/marketlens/screener/pkg/config"
	"github.com/marketlens/screener/pkg/database"
	"github.com/marketlens/screener/pkg/logger"
	"github.com/marketlens/screener/pkg/metrics"
	redisx "github.com/marketlens/screener/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the screener API server",
	Long: `Start the REST API server.

Endpoints:
  GET    /health                                    - Health check
  GET    /api/attributes                            - Criterion schema
  GET    /api/screeners/matches                     - Combined matches
  POST   /api/screeners/{name}/bounds               - Resolve and store a range
  PUT    /api/screeners/{name}/criteria/{attribute} - Set a criterion
  GET    /api/screeners/{name}/matches              - Matches for one screener
  POST   /api/screeners/{name}/reset                - Reset one category
  DELETE /api/screeners/{name}/criteria             - Reset everything
  PATCH  /api/screeners/{name}/included             - Toggle combined-view flag

Example:
  go run ./cmd/screener api
  go run ./cmd/screener api --port 8090`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}
	if knobsFile != "" {
		cfg.Screener.KnobsPath = knobsFile
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 3. Load screening knobs
	knobs, err := loadKnobs(cfg, log)
	if err != nil {
		return err
	}

	// 4. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	log.Info("Connected to database")

	// 5. Connect to Redis
	rdb, err := redisx.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer rdb.Close()

	cache := redisx.NewCache(rdb, "screener")
	limiter := redisx.NewRateLimiter(rdb, "screener")

	// 6. Create metrics recorder
	var rec *metrics.Recorder
	if cfg.MetricsEnabled {
		rec = metrics.New()
	}

	// 7. Create repositories
	corpusRepo := corpus.NewRepository(db.Pool)
	setStore := filterset.NewRepository(db.Pool)
	profileRepo := profile.NewRepository(db.Pool)

	// 8. Create the screener service with cached bound resolution
	extremes := screener.CachedExtremes{
		Scan:  screener.ScanExtremes{Corpus: corpusRepo},
		Cache: cache,
		TTL:   knobs.Resolver.ExtremesCacheTTL,
		Rec:   rec,
	}
	svc := screener.NewService(corpusRepo, setStore, profileRepo, extremes, knobs, log, rec)

	// 9. Create handler and router
	screenerHandler := handlers.NewScreenerHandler(svc, log)
	router := api.NewRouter(cfg, db, screenerHandler, limiter, log)

	// 10. Start the extremes warm scheduler
	var sched *scheduler.Scheduler
	if knobs.Warm.Enabled {
		sched = scheduler.New(log)
		warmJob := jobs.NewExtremesWarmJob(
			corpusRepo, cache,
			knobs.Resolver.ExtremesCacheTTL, knobs.Warm.Schedule,
			log, rec,
		)
		if err := sched.AddJob(warmJob); err != nil {
			return fmt.Errorf("schedule warm job: %w", err)
		}
		sched.Start()
		defer sched.Stop()

		// Prime the cache now instead of waiting for the first tick.
		if err := sched.RunJob(warmJob.Name()); err != nil {
			log.WithError(err).Warn("Failed to trigger warm job")
		}
	}

	// 11. Start server with graceful shutdown
	server := api.New(cfg, log, router)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

// loadKnobs reads the screening knob file, falling back to defaults when
// the file is absent.
func loadKnobs(cfg *config.Config, log *logger.Logger) (*screenerconfig.Config, error) {
	knobs, err := screenerconfig.Load(cfg.Screener.KnobsPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.WithField("path", cfg.Screener.KnobsPath).Warn("Knob file not found, using defaults")
			return screenerconfig.Default(), nil
		}
		return nil, fmt.Errorf("load screening knobs: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"path":    cfg.Screener.KnobsPath,
		"name":    knobs.Meta.Name,
		"version": knobs.Meta.Version,
	}).Info("Loaded screening knobs")

	return knobs, nil
}
