package jobs

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/marketlens/screener/internal/contracts"
	"github.com/marketlens/screener/internal/screener"
	"github.com/marketlens/screener/pkg/logger"
	"github.com/marketlens/screener/pkg/metrics"
	"github.com/marketlens/screener/pkg/redis"
)

// ExtremesWarmJob refreshes the cached corpus extremes for every range
// attribute, so bound resolution hits a warm cache instead of scanning the
// corpus on the request path.
type ExtremesWarmJob struct {
	corpus   contracts.CorpusReader
	cache    *redis.Cache
	ttl      time.Duration
	schedule string
	logger   *logger.Logger
	metrics  *metrics.Recorder
}

// NewExtremesWarmJob creates the warm-up job.
func NewExtremesWarmJob(
	corpus contracts.CorpusReader,
	cache *redis.Cache,
	ttl time.Duration,
	schedule string,
	log *logger.Logger,
	rec *metrics.Recorder,
) *ExtremesWarmJob {
	return &ExtremesWarmJob{
		corpus:   corpus,
		cache:    cache,
		ttl:      ttl,
		schedule: schedule,
		logger:   log,
		metrics:  rec,
	}
}

// Name returns the job name.
func (j *ExtremesWarmJob) Name() string {
	return "extremes_warm"
}

// Schedule returns the cron schedule expression.
func (j *ExtremesWarmJob) Schedule() string {
	return j.schedule
}

// Run recomputes and caches the extremes for every plain range attribute
// and every period of the tagged performance range. Attributes with no
// valid values in the corpus are skipped, not cached: resolution against
// them must keep failing loudly rather than read a stale zero range.
func (j *ExtremesWarmJob) Run(ctx context.Context) error {
	src := screener.ScanExtremes{Corpus: j.corpus}

	warmed := 0
	skipped := 0

	warm := func(at screener.Attribute, period string) error {
		ext, err := src.Extremes(ctx, at, period)
		if err != nil {
			return fmt.Errorf("scan extremes for %q: %w", at.Name, err)
		}
		j.metrics.RecordResolverScan()

		if ext.Count == 0 {
			skipped++
			return nil
		}

		key := redis.ExtremesKey(at.Name, period)
		if err := j.cache.Set(ctx, key, ext, j.ttl); err != nil {
			return fmt.Errorf("cache extremes for %q: %w", at.Name, err)
		}
		warmed++
		return nil
	}

	for _, at := range screener.RangeAttributes() {
		if err := warm(at, ""); err != nil {
			return err
		}
	}

	for _, at := range screener.Attributes() {
		if at.Kind != screener.KindRangeTag {
			continue
		}
		periods := make([]string, 0, len(at.Periods))
		for p := range at.Periods {
			periods = append(periods, p)
		}
		sort.Strings(periods)
		for _, p := range periods {
			if err := warm(at, p); err != nil {
				return err
			}
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"warmed":  warmed,
		"skipped": skipped,
	}).Info("Extremes cache refreshed")

	return nil
}
