package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/marketlens/screener/internal/corpus"
	"github.com/marketlens/screener/internal/scheduler/jobs"
	"github.com/marketlens/screener/pkg/config"
	"github.com/marketlens/screener/pkg/database"
	"github.com/marketlens/screener/pkg/logger"
	redisx "github.com/marketlens/screener/pkg/redis"
)

// warmCmd represents the warm command
var warmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Refresh the cached corpus extremes once",
	Long: `Recompute the corpus extremes for every range attribute and write
them to the Redis cache. The API server does the same on a schedule; this
command is for priming the cache after a corpus reload.

Example:
  go run ./cmd/screener warm`,
	RunE: runWarm,
}

func init() {
	rootCmd.AddCommand(warmCmd)
}

func runWarm(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if knobsFile != "" {
		cfg.Screener.KnobsPath = knobsFile
	}

	log := logger.New(cfg)

	knobs, err := loadKnobs(cfg, log)
	if err != nil {
		return err
	}

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	rdb, err := redisx.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer rdb.Close()

	if !rdb.Enabled() {
		return fmt.Errorf("redis is disabled; nothing to warm")
	}

	cache := redisx.NewCache(rdb, "screener")
	corpusRepo := corpus.NewRepository(db.Pool)

	job := jobs.NewExtremesWarmJob(
		corpusRepo, cache,
		knobs.Resolver.ExtremesCacheTTL, knobs.Warm.Schedule,
		log, nil,
	)

	start := time.Now()
	if err := job.Run(context.Background()); err != nil {
		return fmt.Errorf("warm extremes: %w", err)
	}

	fmt.Printf("Extremes cache refreshed in %.2fs\n", time.Since(start).Seconds())
	return nil
}
