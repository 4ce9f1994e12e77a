package screener

import (
	"context"
	"fmt"
	"time"

	"github.com/marketlens/screener/internal/contracts"
	"github.com/marketlens/screener/internal/screenerconfig"
	"github.com/marketlens/screener/pkg/logger"
	"github.com/marketlens/screener/pkg/metrics"
	"github.com/marketlens/screener/pkg/redis"
)

// Service implements contracts.ScreenerService: the write path (bound
// resolution, criterion upserts, resets) and the read path (single-set and
// combined matching) over the collaborator interfaces.
type Service struct {
	corpus   contracts.CorpusReader
	store    contracts.FilterSetStore
	profiles contracts.ProfileReader
	extremes ExtremesSource
	knobs    *screenerconfig.Config
	logger   *logger.Logger
	metrics  *metrics.Recorder
}

var _ contracts.ScreenerService = (*Service)(nil)

// NewService wires the screener core. Passing a nil extremes source falls
// back to direct corpus scans; a nil recorder disables metrics.
func NewService(
	corpus contracts.CorpusReader,
	store contracts.FilterSetStore,
	profiles contracts.ProfileReader,
	extremes ExtremesSource,
	knobs *screenerconfig.Config,
	log *logger.Logger,
	rec *metrics.Recorder,
) *Service {
	if extremes == nil {
		extremes = ScanExtremes{Corpus: corpus}
	}
	if knobs == nil {
		knobs = screenerconfig.Default()
	}
	return &Service{
		corpus:   corpus,
		store:    store,
		profiles: profiles,
		extremes: extremes,
		knobs:    knobs,
		logger:   log,
		metrics:  rec,
	}
}

// ResolveAndStore resolves a partial bound request against live corpus
// extremes and persists the concrete range, creating the filter set on
// first use.
func (s *Service) ResolveAndStore(ctx context.Context, ownerID, name, attribute, period string, lo, hi *float64) (contracts.StoredRange, error) {
	defer s.timeOp("resolve_bounds")()

	resolved, err := ResolveBounds(ctx, s.extremes, attribute, period, lo, hi)
	if err != nil {
		return contracts.StoredRange{}, err
	}

	c := contracts.PeriodRangeCriterion(resolved.Lo, resolved.Hi, resolved.Period)
	if err := s.store.UpsertCriterion(ctx, ownerID, name, attribute, c); err != nil {
		return contracts.StoredRange{}, fmt.Errorf("store criterion %q: %w", attribute, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"owner":     ownerID,
		"screener":  name,
		"attribute": attribute,
		"lo":        resolved.Lo,
		"hi":        resolved.Hi,
	}).Debug("Stored resolved range")

	return resolved, nil
}

// SetCriterion writes a categorical, position or flag criterion. Range
// attributes go through ResolveAndStore. An empty value (no accepted
// values, empty position, flag off) clears the criterion instead.
func (s *Service) SetCriterion(ctx context.Context, ownerID, name, attribute string, c contracts.Criterion) error {
	defer s.timeOp("set_criterion")()

	at, err := LookupAttribute(attribute)
	if err != nil {
		return err
	}

	switch at.Kind {
	case KindRange, KindRangeTag:
		return fmt.Errorf("%w: %q takes bounds, not a direct criterion", ErrInvalidRange, attribute)

	case KindCategorical:
		if len(c.Values) == 0 {
			return s.store.UnsetFields(ctx, ownerID, name, []string{attribute})
		}
		return s.store.UpsertCriterion(ctx, ownerID, name, attribute, contracts.Criterion{Values: c.Values})

	case KindPosition:
		if c.Position == "" {
			return s.store.UnsetFields(ctx, ownerID, name, []string{attribute})
		}
		if _, ok := at.Positions[c.Position]; !ok {
			return fmt.Errorf("%w: position %q on %q", ErrUnknownAttribute, c.Position, attribute)
		}
		return s.store.UpsertCriterion(ctx, ownerID, name, attribute, contracts.Criterion{Position: c.Position})

	case KindFlag:
		if !c.Flag {
			return s.store.UnsetFields(ctx, ownerID, name, []string{attribute})
		}
		return s.store.UpsertCriterion(ctx, ownerID, name, attribute, contracts.Criterion{Flag: true})
	}

	return fmt.Errorf("%w: %q", ErrUnknownAttribute, attribute)
}

// ListMatches compiles and executes one named filter set.
func (s *Service) ListMatches(ctx context.Context, ownerID, name string) ([]contracts.MatchRecord, error) {
	defer s.timeOp("list_matches")()

	fs, err := s.store.Get(ctx, ownerID, name)
	if err != nil {
		return nil, fmt.Errorf("load filter set %q: %w", name, err)
	}
	if fs == nil {
		return nil, fmt.Errorf("%w: %q", ErrSetNotFound, name)
	}

	pred, err := Compile(fs)
	if err != nil {
		return nil, err
	}

	hidden, err := s.profiles.HiddenSymbols(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load hidden symbols: %w", err)
	}

	matches, err := ExecuteSet(ctx, s.corpus, pred, hidden)
	if err != nil {
		return nil, err
	}

	matches = s.truncate(matches)
	s.metrics.RecordMatches(len(matches))
	return matches, nil
}

// ListCombinedMatches executes every included filter set for the owner
// against one hidden-symbol snapshot, unioned and deduplicated by symbol.
func (s *Service) ListCombinedMatches(ctx context.Context, ownerID string) ([]contracts.MatchRecord, error) {
	defer s.timeOp("list_combined_matches")()

	sets, err := s.store.ListIncluded(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list included sets: %w", err)
	}

	hidden, err := s.profiles.HiddenSymbols(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load hidden symbols: %w", err)
	}

	combined, err := Aggregate(ctx, s.corpus, sets, hidden, s.knobs.Aggregation.FanOut, s.logger, s.metrics)
	if err != nil {
		return nil, err
	}

	combined = s.truncate(combined)
	s.metrics.RecordMatches(len(combined))
	return combined, nil
}

// ResetCategory clears the fields a category tag covers.
func (s *Service) ResetCategory(ctx context.Context, ownerID, name, category string) error {
	defer s.timeOp("reset_category")()

	if err := s.requireSet(ctx, ownerID, name); err != nil {
		return err
	}
	return ResetCategory(ctx, s.store, ownerID, name, category)
}

// ResetAll clears every criterion from the named set.
func (s *Service) ResetAll(ctx context.Context, ownerID, name string) error {
	defer s.timeOp("reset_all")()

	if err := s.requireSet(ctx, ownerID, name); err != nil {
		return err
	}
	return ResetAll(ctx, s.store, ownerID, name)
}

// SetIncluded flips whether the combined view considers the named set.
func (s *Service) SetIncluded(ctx context.Context, ownerID, name string, included bool) error {
	defer s.timeOp("set_included")()

	if err := s.requireSet(ctx, ownerID, name); err != nil {
		return err
	}
	if err := s.store.SetIncluded(ctx, ownerID, name, included); err != nil {
		return fmt.Errorf("set included on %q: %w", name, err)
	}
	return nil
}

func (s *Service) requireSet(ctx context.Context, ownerID, name string) error {
	fs, err := s.store.Get(ctx, ownerID, name)
	if err != nil {
		return fmt.Errorf("load filter set %q: %w", name, err)
	}
	if fs == nil {
		return fmt.Errorf("%w: %q", ErrSetNotFound, name)
	}
	return nil
}

func (s *Service) truncate(matches []contracts.MatchRecord) []contracts.MatchRecord {
	limit := s.knobs.Aggregation.ResultLimit
	if limit > 0 && len(matches) > limit {
		return matches[:limit]
	}
	return matches
}

func (s *Service) timeOp(op string) func() {
	s.metrics.RecordOperation(op)
	start := time.Now()
	return func() {
		s.metrics.RecordDuration(op, time.Since(start).Seconds())
	}
}

// CachedExtremes layers the Redis cache over direct corpus scans so that
// bursts of bound-resolution writes don't each rescan the corpus. The warm
// job refreshes the same keys on a schedule.
type CachedExtremes struct {
	Scan  ScanExtremes
	Cache *redis.Cache
	TTL   time.Duration
	Rec   *metrics.Recorder
}

// Extremes returns cached extremes, scanning the corpus on a miss.
func (c CachedExtremes) Extremes(ctx context.Context, at Attribute, period string) (Extremes, error) {
	key := redis.ExtremesKey(at.Name, period)

	var cached Extremes
	if found, err := c.Cache.Get(ctx, key, &cached); err == nil && found {
		return cached, nil
	}

	c.Rec.RecordResolverScan()
	ext, err := c.Scan.Extremes(ctx, at, period)
	if err != nil {
		return Extremes{}, err
	}

	// Best effort: a failed cache write only costs the next caller a scan.
	_ = c.Cache.Set(ctx, key, ext, c.TTL)
	return ext, nil
}
